package capture

import (
	"net/url"

	"github.com/use-agent/docket/models"
)

// Backpropagate folds resolved provenance URLs back into the canonical
// record. A mapped document field initially holds whatever text sat in the
// cell — a trigger label like "Preview", a dash, or a relative href — and
// without this step the record keeps pointing at that placeholder while the
// real URL sits only on the artifact. Values that already are absolute URLs
// are left alone.
func Backpropagate(rec *models.CanonicalRecord) {
	for _, key := range rec.ArtifactOrder {
		art := rec.Artifacts[key]
		if art == nil || art.Status != models.ArtifactResolved || art.SourceURL == "" {
			continue
		}
		if !art.Mapped {
			continue
		}
		current, ok := rec.ValueAt(art.Section + "." + art.FieldKey)
		if !ok {
			// No canonical slot under this exact key — repeated mapped labels
			// carry dedup-suffixed field keys that exist only in the artifact
			// map. Enrichment never mints keys outside the schema.
			continue
		}
		if isAbsoluteURL(current) {
			continue
		}
		rec.SetValue(art.Section, art.FieldKey, art.SourceURL)
	}
}

func isAbsoluteURL(v string) bool {
	u, err := url.Parse(v)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
