package models

// DiffStatus classifies one field-level comparison between the canonical
// record and the original page.
type DiffStatus string

const (
	DiffMatch                 DiffStatus = "match"
	DiffMismatch              DiffStatus = "mismatch"
	DiffMissingInRecord       DiffStatus = "missing_in_record"
	DiffMissingInHTML         DiffStatus = "missing_in_html"
	DiffPlaceholderUnresolved DiffStatus = "placeholder_unresolved"
)

// FieldDiff is the comparison result for one configured check.
type FieldDiff struct {
	// Path is the logical path into the canonical record ("section.key").
	Path string `json:"logical_path"`

	// Canonical is the value found in the record at Path.
	Canonical string `json:"canonical_value"`

	// Raw is the value read from the persisted page for the configured label.
	Raw string `json:"raw_html_value"`

	Status DiffStatus `json:"status"`
}

// EntityDiff is the ordered diff list for one entity.
type EntityDiff struct {
	EntityID string      `json:"entity_id"`
	Diffs    []FieldDiff `json:"diffs"`
}

// QAReport aggregates a run's field-level comparisons. It is computed fresh
// per run and never persisted; entities are ordered by ID so repeated runs
// on identical input render identically.
type QAReport struct {
	Entities []EntityDiff       `json:"entities"`
	Counts   map[DiffStatus]int `json:"counts"`
	Total    int                `json:"total"`
}
