package models

import "strings"

// TriggerHint locates a UI element whose activation reveals content that is
// not present on the page as a direct link. The locator preference is the
// element's id, then class + tag name, then its trimmed visible text.
type TriggerHint struct {
	// Selector is a CSS selector ("#id" or "tag.class"). Empty when the
	// element carries neither an id nor a class; Text is then the only
	// way to find it again.
	Selector string `json:"selector,omitempty"`

	// Text is the element's trimmed visible text (e.g. "View", "Preview").
	// Always set; also used to recognise placeholder sentinels that leaked
	// into record values.
	Text string `json:"text"`
}

// RawField is one label/value pair lifted from a persisted page.
// Immutable after extraction.
type RawField struct {
	// Label is the normalized form used for synonym matching.
	Label string `json:"label"`

	// OriginalLabel is the label as it appeared on the page.
	OriginalLabel string `json:"original_label"`

	// Value is the value text with internal whitespace collapsed but the
	// original casing preserved. May be empty.
	Value string `json:"value"`

	// Links holds destinations of direct hyperlinks found in the value
	// cell(s), in document order.
	Links []string `json:"links,omitempty"`

	// Trigger is non-nil when the value cell contains an interactive
	// element that must be activated to reveal content. A field with a
	// Trigger is artifact-bearing regardless of whether its label is ever
	// mapped to a canonical key.
	Trigger *TriggerHint `json:"trigger,omitempty"`
}

// ArtifactBearing reports whether the field's full value is only reachable
// by activating a UI element.
func (f *RawField) ArtifactBearing() bool {
	return f.Trigger != nil
}

// RawSection is one titled group of fields, produced once per page and
// read-only thereafter.
type RawSection struct {
	Title  string     `json:"title"`
	Fields []RawField `json:"fields"`
}

// RawPage is the full extraction result for one entity: ordered sections
// plus a DOM layout fingerprint used to spot pages whose structure drifts
// from the rest of the run.
type RawPage struct {
	EntityID string       `json:"entity_id"`
	Sections []RawSection `json:"sections"`
	Layout   uint64       `json:"layout_fingerprint"`
}

// FieldByLabel returns the value of the first field whose normalized label
// matches, searching sections in document order.
func (p *RawPage) FieldByLabel(normLabel string) (string, bool) {
	for _, sec := range p.Sections {
		for _, f := range sec.Fields {
			if f.Label == normLabel {
				return f.Value, true
			}
		}
	}
	return "", false
}

// CanonicalRecord is the schema-versioned structured record for one entity.
// It is mutated exactly twice: once at mapping time, and once during
// artifact back-propagation (URL enrichment only).
type CanonicalRecord struct {
	EntityID      string `json:"entity_id"`
	SchemaVersion string `json:"schema_version"`

	// Sections maps logical section name -> canonical key -> normalized value.
	Sections map[string]map[string]string `json:"sections"`

	// Unmapped preserves anything the synonym table does not yet recognise:
	// raw section title -> original label -> raw value. Nothing is discarded.
	Unmapped map[string]map[string]string `json:"unmapped,omitempty"`

	// Artifacts holds one entry per artifact-bearing field, keyed by
	// field key (canonical key when mapped, slugged title.label otherwise).
	Artifacts map[string]*ArtifactRecord `json:"artifacts,omitempty"`

	// ArtifactOrder lists artifact field keys in the order the fields were
	// discovered during extraction, so capture runs are reproducible.
	ArtifactOrder []string `json:"artifact_order,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// ValueAt resolves a logical path of the form "section.key" against the
// mapped sections.
func (r *CanonicalRecord) ValueAt(path string) (string, bool) {
	sec, key, ok := strings.Cut(path, ".")
	if !ok {
		return "", false
	}
	fields, ok := r.Sections[sec]
	if !ok {
		return "", false
	}
	v, ok := fields[key]
	return v, ok
}

// SetValue writes a canonical value, allocating the section map on first use.
func (r *CanonicalRecord) SetValue(section, key, value string) {
	if r.Sections == nil {
		r.Sections = make(map[string]map[string]string)
	}
	if r.Sections[section] == nil {
		r.Sections[section] = make(map[string]string)
	}
	r.Sections[section][key] = value
}

// AddUnmapped appends a raw label/value pair to the unmapped bag under its
// original section title.
func (r *CanonicalRecord) AddUnmapped(sectionTitle, label, value string) {
	if r.Unmapped == nil {
		r.Unmapped = make(map[string]map[string]string)
	}
	if r.Unmapped[sectionTitle] == nil {
		r.Unmapped[sectionTitle] = make(map[string]string)
	}
	r.Unmapped[sectionTitle][label] = value
}

// AddWarning attaches a recovered failure to the record.
func (r *CanonicalRecord) AddWarning(code, field, message string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Field: field, Message: message})
}
