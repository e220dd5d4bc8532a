package models

// ArtifactStatus is the lifecycle state of an artifact record. A record
// transitions pending -> resolved/unresolved exactly once per run.
type ArtifactStatus string

const (
	// ArtifactPending is the placeholder state produced by the mapper.
	ArtifactPending ArtifactStatus = "pending"

	// ArtifactResolved means content was captured and a provenance URL
	// recorded.
	ArtifactResolved ArtifactStatus = "resolved"

	// ArtifactUnresolved means capture failed for this field; Notes
	// explains why. Other fields of the same entity are unaffected.
	ArtifactUnresolved ArtifactStatus = "unresolved"
)

// ArtifactRecord tracks one artifact-bearing field from placeholder through
// capture. The set of placeholders produced for a page always covers every
// artifact-bearing RawField — an unmapped section never drops one.
type ArtifactRecord struct {
	// FieldKey is the deterministic key: the canonical key when the label
	// was mapped, otherwise slugify(section title) + "." + slugify(label).
	FieldKey string `json:"field_key"`

	// Section is the logical section name when mapped, else the raw
	// section title.
	Section string `json:"section"`

	// Label is the original on-page label of the field.
	Label string `json:"label"`

	// Mapped records whether FieldKey is a canonical key.
	Mapped bool `json:"mapped"`

	// Trigger is the locator captured at extraction time; nil only for
	// records created from explicit links.
	Trigger *TriggerHint `json:"trigger,omitempty"`

	// DirectURL is the explicit link destination when one was present in
	// the value cell. When set, the direct capture strategy applies.
	DirectURL string `json:"direct_url,omitempty"`

	// Type is the captured content kind: "pdf", "image", "html", "binary".
	// Empty until resolved.
	Type string `json:"artifact_type,omitempty"`

	// Files lists storage paths of the persisted content.
	Files []string `json:"persisted_files,omitempty"`

	// SourceURL is the final resolved URL the content was captured from,
	// after any redirects or script-driven navigation. Empty when capture
	// failed.
	SourceURL string `json:"source_url,omitempty"`

	Status ArtifactStatus `json:"status"`

	// Notes explains an unresolved capture.
	Notes string `json:"notes,omitempty"`
}

// MarkResolved records a successful capture.
func (a *ArtifactRecord) MarkResolved(sourceURL, artifactType string, files []string) {
	a.Status = ArtifactResolved
	a.SourceURL = sourceURL
	a.Type = artifactType
	a.Files = files
	a.Notes = ""
}

// MarkUnresolved records a failed capture, clearing any partial state.
func (a *ArtifactRecord) MarkUnresolved(reason string) {
	a.Status = ArtifactUnresolved
	a.SourceURL = ""
	a.Type = ""
	a.Files = nil
	a.Notes = reason
}
