package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/use-agent/docket/models"
)

// defaultSentinels recognise trigger-label text mistakenly stored as a value
// or URL. The synonym table may extend the list.
var defaultSentinels = []string{"preview", "view", "download", "not available", "na", "-"}

// SynonymTable is the strongly typed synonym configuration: per logical
// section a title-variant list, and per canonical key an ordered
// label-variant list (priority = list order). It is validated at load time;
// a missing or malformed table aborts the run before any entity is
// processed.
type SynonymTable struct {
	// SchemaVersion stamps every canonical record produced under this table.
	SchemaVersion string `yaml:"schema_version"`

	// Sections are the logical sections in declaration order. Declaration
	// order is also the tie-break when one label matches variant lists of
	// two different keys.
	Sections []SectionSpec `yaml:"sections"`

	// Sentinels extends the built-in placeholder sentinel list.
	Sentinels []string `yaml:"sentinels"`

	// Checks configures the QA comparator: logical path vs original label.
	Checks []CheckSpec `yaml:"checks"`
}

// SectionSpec declares one logical section of the canonical record.
type SectionSpec struct {
	Name   string    `yaml:"name"`
	Titles []string  `yaml:"titles"`
	Keys   []KeySpec `yaml:"keys"`
}

// KeySpec declares one canonical key and its on-page label variants.
type KeySpec struct {
	Name string `yaml:"name"`

	// Labels are normalized at load; matching is case- and
	// punctuation-insensitive.
	Labels []string `yaml:"labels"`

	// Type selects post-processing: "" (none), "date" (normalized to
	// ISO year-month-day), "postal" (derived from an address-like field
	// when not separately provided), "url".
	Type string `yaml:"type"`
}

// CheckSpec is one QA comparison pair.
type CheckSpec struct {
	// Path is the logical path into the canonical record ("section.key").
	Path string `yaml:"path"`

	// Label is the original on-page label whose raw value Path must match.
	Label string `yaml:"label"`
}

// LoadSynonyms reads and validates the synonym table. Any failure here is
// fatal to the run: an empty or broken table cannot produce a meaningful
// record.
func LoadSynonyms(path string) (*SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfig,
			fmt.Sprintf("synonym table %s unreadable", path), err)
	}

	var t SynonymTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfig,
			fmt.Sprintf("synonym table %s is not valid YAML", path), err)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	t.normalize()
	return &t, nil
}

func (t *SynonymTable) validate() error {
	if len(t.Sections) == 0 {
		return models.NewPipelineError(models.ErrCodeConfig,
			"synonym table declares no sections", nil)
	}
	for _, sec := range t.Sections {
		if sec.Name == "" {
			return models.NewPipelineError(models.ErrCodeConfig,
				"synonym table has a section with no name", nil)
		}
		if len(sec.Titles) == 0 {
			return models.NewPipelineError(models.ErrCodeConfig,
				fmt.Sprintf("section %q declares no title variants", sec.Name), nil)
		}
		for _, k := range sec.Keys {
			if k.Name == "" {
				return models.NewPipelineError(models.ErrCodeConfig,
					fmt.Sprintf("section %q has a key with no name", sec.Name), nil)
			}
			if len(k.Labels) == 0 && k.Type != "postal" {
				return models.NewPipelineError(models.ErrCodeConfig,
					fmt.Sprintf("key %q in section %q declares no label variants", k.Name, sec.Name), nil)
			}
		}
	}
	return nil
}

// normalize pre-lowers all title and label variants so per-field matching
// is a plain string compare.
func (t *SynonymTable) normalize() {
	for si := range t.Sections {
		sec := &t.Sections[si]
		for ti, title := range sec.Titles {
			sec.Titles[ti] = models.NormalizeLabel(title)
		}
		for ki := range sec.Keys {
			for li, l := range sec.Keys[ki].Labels {
				sec.Keys[ki].Labels[li] = models.NormalizeLabel(l)
			}
		}
	}
}

// ResolveSection matches a raw section title against every logical
// section's title-variant list; the first section whose list contains the
// title wins.
func (t *SynonymTable) ResolveSection(title string) (*SectionSpec, bool) {
	norm := models.NormalizeLabel(title)
	for i := range t.Sections {
		for _, v := range t.Sections[i].Titles {
			if v == norm {
				return &t.Sections[i], true
			}
		}
	}
	return nil, false
}

// Section returns a logical section by its canonical name.
func (t *SynonymTable) Section(name string) (*SectionSpec, bool) {
	for i := range t.Sections {
		if t.Sections[i].Name == name {
			return &t.Sections[i], true
		}
	}
	return nil, false
}

// ResolveKey looks a normalized label up against the section's variant
// lists in key-declaration order. It returns every matching key so the
// caller can warn about an ambiguous table; the first match is the winner.
func (s *SectionSpec) ResolveKey(normLabel string) []KeySpec {
	var matches []KeySpec
	for _, k := range s.Keys {
		for _, v := range k.Labels {
			if v == normLabel {
				matches = append(matches, k)
				break
			}
		}
	}
	return matches
}

// SentinelSet returns the combined sentinel list (defaults plus table
// additions), normalized for comparison.
func (t *SynonymTable) SentinelSet() map[string]struct{} {
	set := make(map[string]struct{}, len(defaultSentinels)+len(t.Sentinels))
	for _, s := range defaultSentinels {
		set[models.FoldValue(s)] = struct{}{}
	}
	for _, s := range t.Sentinels {
		set[models.FoldValue(s)] = struct{}{}
	}
	return set
}
