// Package qa verifies, field by field, that mapping did not silently lose
// data: every configured logical path is compared against the raw value
// still on the persisted page.
package qa

import (
	"sort"

	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/models"
)

// Comparator holds the configured comparison pairs and the sentinel set
// used to recognise trigger-label text posing as a value.
type Comparator struct {
	checks    []config.CheckSpec
	sentinels map[string]struct{}
}

// NewComparator builds a Comparator from the synonym table's checks section.
func NewComparator(table *config.SynonymTable) *Comparator {
	return &Comparator{
		checks:    table.Checks,
		sentinels: table.SentinelSet(),
	}
}

// Entity compares one entity's final (post-back-propagation) canonical
// record against its raw page. Diffs come back in check-declaration order,
// so repeated runs render identically.
func (c *Comparator) Entity(page *models.RawPage, rec *models.CanonicalRecord) models.EntityDiff {
	diffs := make([]models.FieldDiff, 0, len(c.checks))

	for _, check := range c.checks {
		canonical, _ := rec.ValueAt(check.Path)
		raw, _ := page.FieldByLabel(models.NormalizeLabel(check.Label))

		diffs = append(diffs, models.FieldDiff{
			Path:      check.Path,
			Canonical: canonical,
			Raw:       raw,
			Status:    c.classify(canonical, raw),
		})
	}

	return models.EntityDiff{EntityID: page.EntityID, Diffs: diffs}
}

// classify applies the five-way status. Both sides are normalized (trimmed,
// whitespace collapsed, case-folded) before comparison.
func (c *Comparator) classify(canonical, raw string) models.DiffStatus {
	cv := models.FoldValue(canonical)
	rv := models.FoldValue(raw)

	if _, sentinel := c.sentinels[rv]; sentinel && rv != "" {
		// The page still shows only the trigger label ("View", "Preview"):
		// there was never a raw value to compare against.
		return models.DiffPlaceholderUnresolved
	}

	switch {
	case cv == "" && rv == "":
		return models.DiffMatch
	case cv == "":
		return models.DiffMissingInRecord
	case rv == "":
		return models.DiffMissingInHTML
	case cv == rv:
		return models.DiffMatch
	default:
		return models.DiffMismatch
	}
}

// BuildReport aggregates per-entity diffs into a run report, ordered by
// entity ID for reproducible output.
func BuildReport(entities []models.EntityDiff) *models.QAReport {
	sorted := make([]models.EntityDiff, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EntityID < sorted[j].EntityID })

	report := &models.QAReport{
		Entities: sorted,
		Counts:   make(map[models.DiffStatus]int),
	}
	for _, e := range sorted {
		for _, d := range e.Diffs {
			report.Counts[d.Status]++
			report.Total++
		}
	}
	return report
}

// Filter narrows a report to one entity and/or the first n entities.
// Zero limit means no cap. Counts are recomputed over the kept entities.
func Filter(r *models.QAReport, entityID string, limit int) *models.QAReport {
	var kept []models.EntityDiff
	for _, e := range r.Entities {
		if entityID != "" && e.EntityID != entityID {
			continue
		}
		kept = append(kept, e)
		if limit > 0 && len(kept) >= limit {
			break
		}
	}
	return BuildReport(kept)
}
