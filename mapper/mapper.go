// Package mapper resolves raw extracted sections against the synonym table
// to produce the canonical record for one entity. Mapping is pure: the same
// raw page and table always yield byte-identical records.
package mapper

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/models"
)

// Mapper holds the validated synonym table.
type Mapper struct {
	table *config.SynonymTable
}

// New creates a Mapper. A nil or empty table is the one fatal configuration
// condition — without synonyms no meaningful record can be produced.
func New(table *config.SynonymTable) (*Mapper, error) {
	if table == nil || len(table.Sections) == 0 {
		return nil, models.NewPipelineError(models.ErrCodeConfig,
			"synonym table missing or empty", nil)
	}
	return &Mapper{table: table}, nil
}

// Map builds the canonical record from an extracted page.
//
// Labels that no variant list recognises land in the unmapped bag, never on
// the floor. Artifact placeholder creation is deliberately orthogonal to
// section/key resolution: every trigger-bearing field gets exactly one
// placeholder whether or not its section was mapped.
func (m *Mapper) Map(page *models.RawPage) *models.CanonicalRecord {
	rec := &models.CanonicalRecord{
		EntityID:      page.EntityID,
		SchemaVersion: m.table.SchemaVersion,
		Sections:      make(map[string]map[string]string),
	}

	for _, raw := range page.Sections {
		spec, sectionMapped := m.table.ResolveSection(raw.Title)

		for fi := range raw.Fields {
			f := &raw.Fields[fi]

			var canonicalKey string
			if sectionMapped {
				canonicalKey = m.mapField(rec, spec, raw.Title, f)
			} else {
				rec.AddUnmapped(raw.Title, f.OriginalLabel, f.Value)
			}

			if f.ArtifactBearing() {
				m.addPlaceholder(rec, spec, raw.Title, canonicalKey, f)
			}
		}
	}

	m.derivePostalCodes(rec)
	return rec
}

// mapField resolves one field's label within a mapped section. Returns the
// canonical key name, or "" when the label stays unmapped.
func (m *Mapper) mapField(rec *models.CanonicalRecord, spec *config.SectionSpec, rawTitle string, f *models.RawField) string {
	matches := spec.ResolveKey(f.Label)
	if len(matches) == 0 {
		rec.AddUnmapped(rawTitle, f.OriginalLabel, f.Value)
		return ""
	}

	key := matches[0]
	if len(matches) > 1 {
		// Ambiguous synonym table: resolved deterministically to the first
		// key in section-declaration order. A configuration-quality issue,
		// not a fatal one.
		names := make([]string, len(matches))
		for i, k := range matches {
			names[i] = k.Name
		}
		msg := fmt.Sprintf("label %q matches keys %s; using %q",
			f.OriginalLabel, strings.Join(names, ", "), key.Name)
		rec.AddWarning(models.ErrCodeSynonymAmbiguity, key.Name, msg)
		slog.Warn("ambiguous synonym table entry",
			"entity", rec.EntityID, "section", spec.Name, "label", f.OriginalLabel, "keys", names)
	}

	switch key.Type {
	case "date":
		normalized, ok := NormalizeDate(f.Value)
		if !ok {
			// Unparseable date: the field stays unset and the raw string is
			// preserved verbatim — never silently coerced.
			rec.AddUnmapped(rawTitle, f.OriginalLabel, f.Value)
			rec.AddWarning(models.ErrCodeNormalization, key.Name,
				fmt.Sprintf("date %q matches no known format", f.Value))
			return key.Name
		}
		rec.SetValue(spec.Name, key.Name, normalized)
	default:
		rec.SetValue(spec.Name, key.Name, f.Value)
	}
	return key.Name
}

// addPlaceholder creates the artifact placeholder for a trigger-bearing
// field. The field key is the canonical key when the label resolved, else a
// slug of section title and label.
func (m *Mapper) addPlaceholder(rec *models.CanonicalRecord, spec *config.SectionSpec, rawTitle, canonicalKey string, f *models.RawField) {
	mapped := canonicalKey != ""
	section := rawTitle
	fieldKey := models.Slugify(rawTitle) + "." + models.Slugify(f.OriginalLabel)
	if mapped {
		section = spec.Name
		fieldKey = canonicalKey
	}

	if rec.Artifacts == nil {
		rec.Artifacts = make(map[string]*models.ArtifactRecord)
	}

	// Repeated labels (periodic-update rows) get a deterministic suffix so
	// no artifact-bearing field ever collapses into another.
	base := fieldKey
	for n := 2; ; n++ {
		if _, taken := rec.Artifacts[fieldKey]; !taken {
			break
		}
		fieldKey = fmt.Sprintf("%s-%d", base, n)
	}

	var directURL string
	if len(f.Links) > 0 {
		directURL = f.Links[0]
	}

	rec.Artifacts[fieldKey] = &models.ArtifactRecord{
		FieldKey:  fieldKey,
		Section:   section,
		Label:     f.OriginalLabel,
		Mapped:    mapped,
		Trigger:   f.Trigger,
		DirectURL: directURL,
		Status:    models.ArtifactPending,
	}
	rec.ArtifactOrder = append(rec.ArtifactOrder, fieldKey)
}

// derivePostalCodes fills every key of type "postal" that no label supplied
// directly, by scanning the same section's address-like values for a
// six-digit run.
func (m *Mapper) derivePostalCodes(rec *models.CanonicalRecord) {
	for _, spec := range m.table.Sections {
		for _, key := range spec.Keys {
			if key.Type != "postal" {
				continue
			}
			if v, ok := rec.Sections[spec.Name][key.Name]; ok && v != "" {
				continue
			}
			for _, candidate := range spec.Keys {
				if !strings.Contains(candidate.Name, "address") {
					continue
				}
				addr, ok := rec.Sections[spec.Name][candidate.Name]
				if !ok || addr == "" {
					continue
				}
				if code, found := PostalCode(addr); found {
					rec.SetValue(spec.Name, key.Name, code)
					break
				}
			}
		}
	}
}
