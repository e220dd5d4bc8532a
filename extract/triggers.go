package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/docket/models"
)

// triggerMarkers are the words whose presence in an interactive element's
// visible text marks the field as artifact-bearing. Matching is
// case-insensitive substring.
var triggerMarkers = []string{"preview", "view", "download"}

// interactiveMatcher selects elements whose activation can reveal content.
// Compiled once; goquery accepts cascadia selectors directly.
var interactiveMatcher = cascadia.MustCompile(`a, button, input[type="button"], input[type="submit"]`)

// explicitLinks collects direct hyperlink destinations from the value
// cells, in document order. Script pseudo-links and bare fragments are not
// resolvable destinations and are excluded — those are trigger territory.
func explicitLinks(cells *goquery.Selection) []string {
	var links []string
	cells.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		links = append(links, href)
	})
	return links
}

// detectTrigger scans the value cells for an interactive element whose
// visible text contains a preview/view/download marker. The first such
// element wins. The hint's locator prefers the element id, then
// class + tag name, then the trimmed text as last resort.
func detectTrigger(cells *goquery.Selection) *models.TriggerHint {
	var hint *models.TriggerHint

	cells.FindMatcher(interactiveMatcher).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := visibleText(el)
		if !containsMarker(text) {
			return true
		}
		hint = hintFor(el, text)
		return false
	})

	return hint
}

// visibleText returns an element's trimmed visible text; for value-carrying
// inputs (buttons) the value attribute stands in.
func visibleText(el *goquery.Selection) string {
	if t := models.CollapseWhitespace(el.Text()); t != "" {
		return t
	}
	if v, ok := el.Attr("value"); ok {
		return models.CollapseWhitespace(v)
	}
	if v, ok := el.Attr("title"); ok {
		return models.CollapseWhitespace(v)
	}
	return ""
}

func containsMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range triggerMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// hintFor derives the stable locator for a trigger element.
func hintFor(el *goquery.Selection, text string) *models.TriggerHint {
	if id, ok := el.Attr("id"); ok && strings.TrimSpace(id) != "" {
		return &models.TriggerHint{Selector: "#" + strings.TrimSpace(id), Text: text}
	}
	if class, ok := el.Attr("class"); ok && strings.TrimSpace(class) != "" {
		sel := goquery.NodeName(el) + "." + strings.Join(strings.Fields(class), ".")
		return &models.TriggerHint{Selector: sel, Text: text}
	}
	return &models.TriggerHint{Text: text}
}
