package qa

import (
	"fmt"
	"io"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/use-agent/docket/models"
)

// statusOrder fixes the rendering order of the summary counts.
var statusOrder = []models.DiffStatus{
	models.DiffMatch,
	models.DiffMismatch,
	models.DiffMissingInRecord,
	models.DiffMissingInHTML,
	models.DiffPlaceholderUnresolved,
}

// Render writes the condensed tabular form of a report for human review:
// a summary count line followed by one row per non-matching diff. Matches
// are elided unless verbose is set — reviewers scan for loss, not success.
func Render(w io.Writer, r *models.QAReport, verbose bool) error {
	fmt.Fprintf(w, "checked %d fields across %d entities\n", r.Total, len(r.Entities))
	for _, st := range statusOrder {
		if n := r.Counts[st]; n > 0 {
			fmt.Fprintf(w, "  %-24s %d\n", st, n)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nENTITY\tPATH\tSTATUS\tRECORD\tPAGE")
	for _, e := range r.Entities {
		for _, d := range e.Diffs {
			if d.Status == models.DiffMatch && !verbose {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.EntityID, d.Path, d.Status, clip(d.Canonical, 40), clip(d.Raw, 40))
		}
	}
	return tw.Flush()
}

// clip truncates long values so the table stays scannable. Truncation is
// by rune: portal values carry Devanagari, and a byte cut would split a
// character.
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
