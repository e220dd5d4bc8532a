package mapper

import "regexp"

// postalRe finds a run of exactly six digits bounded by non-digit
// characters (or the string edges) — the Indian PIN code shape.
var postalRe = regexp.MustCompile(`(?:^|[^0-9])([0-9]{6})(?:[^0-9]|$)`)

// PostalCode derives a postal code from an address-like value. The first
// six-digit run wins; longer or shorter digit runs never match.
func PostalCode(address string) (string, bool) {
	m := postalRe.FindStringSubmatch(address)
	if m == nil {
		return "", false
	}
	return m[1], true
}
