// Package extract parses persisted regulatory-portal detail pages into
// ordered sections of labeled fields. Extraction is pure and per-entity:
// failures are section-scoped, never document-fatal.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/docket/layout"
	"github.com/use-agent/docket/models"
)

// headingSelector matches the preceding title candidates for a table.
const headingSelector = "h1, h2, h3, h4, h5, h6"

// Page parses one persisted page document into a RawPage. The returned
// sections are in document order and read-only from here on. An error is
// returned only when the document cannot be read at all; a table that
// yields no label/value rows simply produces a section with zero fields.
func Page(entityID, rawHTML string) (*models.RawPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeExtraction,
			"page document unreadable", err)
	}

	page := &models.RawPage{
		EntityID: entityID,
		Layout:   layout.Fingerprint(rawHTML),
	}

	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		// Nested tables are walked from their outer row; only top-level
		// tables start a section.
		if tbl.ParentsFiltered("table").Length() > 0 {
			return
		}
		page.Sections = append(page.Sections, models.RawSection{
			Title:  sectionTitle(tbl),
			Fields: collectFields(tbl),
		})
	})

	return page, nil
}

// sectionTitle derives a section's title: the table's caption, else the
// nearest preceding heading that still belongs to this table (the search
// stops at any intervening table, whose heading is not ours), else the text
// of a full-width header row. Pages without any of these yield an untitled
// section rather than failing.
func sectionTitle(tbl *goquery.Selection) string {
	if caption := tbl.ChildrenFiltered("caption"); caption.Length() > 0 {
		return models.CollapseWhitespace(caption.First().Text())
	}

	if h := precedingHeading(tbl); h != "" {
		return h
	}
	if h := precedingHeading(tbl.Parent()); h != "" {
		return h
	}

	// First row spanning the full width doubles as a title on many of the
	// older portal layouts.
	if row := ownRows(tbl).First(); row.Length() > 0 {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() == 1 {
			return models.CollapseWhitespace(cells.Text())
		}
	}
	return ""
}

// precedingHeading walks previous siblings until it meets a heading or
// another table. Hitting a table first means the next heading up belongs to
// that table, not this one.
func precedingHeading(from *goquery.Selection) string {
	for sib := from.Prev(); sib.Length() > 0; sib = sib.Prev() {
		if sib.Is(headingSelector) {
			return models.CollapseWhitespace(sib.Text())
		}
		if sib.Is("table") || sib.Find("table").Length() > 0 {
			return ""
		}
	}
	return ""
}

// collectFields walks the table's own rows (not those of nested tables) and
// emits one RawField per label/value row. A row whose value cell holds a
// nested table recurses, surfacing the inner rows as fields of the same
// section.
func collectFields(tbl *goquery.Selection) []models.RawField {
	var fields []models.RawField

	ownRows(tbl).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() < 2 {
			// Title rows, separators, decorative rows.
			return
		}

		labelText := models.CollapseWhitespace(cells.First().Text())
		if labelText == "" {
			return
		}

		valueCells := cells.Slice(1, cells.Length())

		// Nested layout: the value cell wraps another label/value table.
		if nested := valueCells.Find("table"); nested.Length() > 0 {
			nested.Each(func(_ int, inner *goquery.Selection) {
				if inner.ParentsFiltered("table").First().Nodes[0] != tbl.Nodes[0] {
					return // grand-children are reached by recursion
				}
				fields = append(fields, collectFields(inner)...)
			})
			return
		}

		fields = append(fields, models.RawField{
			Label:         models.NormalizeLabel(labelText),
			OriginalLabel: labelText,
			Value:         valueText(valueCells),
			Links:         explicitLinks(valueCells),
			Trigger:       detectTrigger(valueCells),
		})
	})

	return fields
}

// ownRows selects the rows that belong directly to tbl, excluding rows of
// any table nested inside a value cell.
func ownRows(tbl *goquery.Selection) *goquery.Selection {
	return tbl.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		closest := row.Closest("table")
		return closest.Length() > 0 && closest.Nodes[0] == tbl.Nodes[0]
	})
}

// valueText joins the text of all value cells, collapsing whitespace but
// preserving the original casing.
func valueText(cells *goquery.Selection) string {
	var parts []string
	cells.Each(func(_ int, c *goquery.Selection) {
		if t := models.CollapseWhitespace(c.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}
