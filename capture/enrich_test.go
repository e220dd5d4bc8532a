package capture

import (
	"testing"

	"github.com/use-agent/docket/models"
)

func TestBackpropagate_OverwritesPlaceholderValues(t *testing.T) {
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "approved_layout", Section: "project", Mapped: true},
		&models.ArtifactRecord{FieldKey: "sanction_letter", Section: "project", Mapped: true},
	)
	rec.SetValue("project", "approved_layout", "Preview")
	rec.SetValue("project", "sanction_letter", "-")

	rec.Artifacts["approved_layout"].MarkResolved("https://portal.example.in/d/layout.pdf", "pdf", nil)
	rec.Artifacts["sanction_letter"].MarkResolved("https://portal.example.in/d/sanction.pdf", "pdf", nil)

	Backpropagate(rec)

	if v, _ := rec.ValueAt("project.approved_layout"); v != "https://portal.example.in/d/layout.pdf" {
		t.Errorf("approved_layout = %q", v)
	}
	if v, _ := rec.ValueAt("project.sanction_letter"); v != "https://portal.example.in/d/sanction.pdf" {
		t.Errorf("sanction_letter = %q", v)
	}
}

func TestBackpropagate_LeavesRealURLsAlone(t *testing.T) {
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "approved_layout", Section: "project", Mapped: true},
	)
	rec.SetValue("project", "approved_layout", "https://cdn.example.in/original.pdf")
	rec.Artifacts["approved_layout"].MarkResolved("https://portal.example.in/d/layout.pdf", "pdf", nil)

	Backpropagate(rec)

	if v, _ := rec.ValueAt("project.approved_layout"); v != "https://cdn.example.in/original.pdf" {
		t.Errorf("pre-existing URL overwritten: %q", v)
	}
}

func TestBackpropagate_PromotesRelativeHrefs(t *testing.T) {
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "approved_layout", Section: "project", Mapped: true,
			DirectURL: "/docs/layout.pdf"},
	)
	rec.SetValue("project", "approved_layout", "/docs/layout.pdf")
	rec.Artifacts["approved_layout"].MarkResolved("https://portal.example.in/docs/layout.pdf", "pdf", nil)

	Backpropagate(rec)

	if v, _ := rec.ValueAt("project.approved_layout"); v != "https://portal.example.in/docs/layout.pdf" {
		t.Errorf("relative href not promoted: %q", v)
	}
}

func TestBackpropagate_DedupSuffixedKeysStayOutOfSections(t *testing.T) {
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "approved_layout", Section: "project", Mapped: true},
		&models.ArtifactRecord{FieldKey: "approved_layout-2", Section: "project", Mapped: true},
	)
	rec.SetValue("project", "approved_layout", "Preview")
	rec.Artifacts["approved_layout"].MarkResolved("https://portal.example.in/d/layout.pdf", "pdf", nil)
	rec.Artifacts["approved_layout-2"].MarkResolved("https://portal.example.in/d/layout-rev.pdf", "pdf", nil)

	Backpropagate(rec)

	if v, _ := rec.ValueAt("project.approved_layout"); v != "https://portal.example.in/d/layout.pdf" {
		t.Errorf("approved_layout = %q", v)
	}
	if _, ok := rec.ValueAt("project.approved_layout-2"); ok {
		t.Error("dedup-suffixed artifact key must not become a canonical key")
	}
	// The repeat's provenance still lives on its artifact record.
	if rec.Artifacts["approved_layout-2"].SourceURL == "" {
		t.Error("suffixed artifact should keep its resolved source URL")
	}
}

func TestBackpropagate_SkipsUnresolvedAndUnmapped(t *testing.T) {
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "approved_layout", Section: "project", Mapped: true},
		&models.ArtifactRecord{FieldKey: "litigation-details.case-papers", Section: "Litigation Details"},
	)
	rec.SetValue("project", "approved_layout", "Preview")
	rec.Artifacts["approved_layout"].MarkUnresolved("pop-up never opened")
	rec.Artifacts["litigation-details.case-papers"].MarkResolved("https://portal.example.in/d/case.pdf", "pdf", nil)

	Backpropagate(rec)

	if v, _ := rec.ValueAt("project.approved_layout"); v != "Preview" {
		t.Errorf("unresolved artifact must not back-propagate, got %q", v)
	}
	if _, ok := rec.ValueAt("Litigation Details.litigation-details.case-papers"); ok {
		t.Error("unmapped artifact must not create canonical entries")
	}
}
