package mapper

import (
	"strings"
	"time"
)

// dateLayouts is the fixed priority list of date formats seen across the
// portal's page vintages. The first successful parse wins; matching is
// deliberately not heuristic so identical input always normalizes
// identically.
var dateLayouts = []string{
	"02/01/2006", // day/month/year, the dominant on-page format
	"02-01-2006",
	"02.01.2006",
	"2006-01-02", // ISO year-month-day
	"2 Jan 2006", // day, abbreviated month name
	"2 January 2006",
	"2006/01/02", // year/month/day
}

// canonicalDateLayout is the single form every date re-emits in.
const canonicalDateLayout = "2006-01-02"

// NormalizeDate re-emits a raw on-page date in canonical ISO form. The
// second return is false when no known format matches; the caller must then
// leave the canonical field unset and preserve the raw string verbatim —
// never coerce.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(canonicalDateLayout), true
		}
	}
	return "", false
}
