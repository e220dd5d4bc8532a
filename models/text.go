package models

import "strings"

// CollapseWhitespace trims the string and collapses internal runs of
// whitespace (including newlines from multi-line table cells) to single
// spaces, preserving the original casing.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldValue normalizes a value for comparison: trimmed, internal whitespace
// collapsed, case-folded. Unlike NormalizeLabel it keeps punctuation, so
// "-" and "N/A" survive as sentinels.
func FoldValue(s string) string {
	return strings.ToLower(CollapseWhitespace(s))
}

// NormalizeLabel lowers a raw on-page label into the form used for synonym
// matching: lowercase, punctuation stripped, whitespace collapsed.
// "Project Name :" and "project name" normalize to the same string.
func NormalizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return CollapseWhitespace(b.String())
}

// Slugify converts arbitrary text into a stable lowercase slug suitable for
// artifact field keys: non-alphanumeric runs become single dashes.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
