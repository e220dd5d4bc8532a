package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/models"
)

// stubDriver simulates strategy outcomes per field key.
type stubDriver struct {
	results map[string]*captured
	errs    map[string]error
	slow    map[string]bool // block until the field context expires
	calls   []string
}

func (s *stubDriver) direct(ctx context.Context, art *models.ArtifactRecord) (*captured, error) {
	s.calls = append(s.calls, "direct:"+art.FieldKey)
	return s.outcome(ctx, art)
}

func (s *stubDriver) triggered(ctx context.Context, art *models.ArtifactRecord) (*captured, error) {
	s.calls = append(s.calls, "triggered:"+art.FieldKey)
	return s.outcome(ctx, art)
}

func (s *stubDriver) outcome(ctx context.Context, art *models.ArtifactRecord) (*captured, error) {
	if s.slow[art.FieldKey] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := s.errs[art.FieldKey]; ok {
		return nil, err
	}
	if res, ok := s.results[art.FieldKey]; ok {
		return res, nil
	}
	return &captured{
		sourceURL:   "https://portal.example.in/doc/" + art.FieldKey,
		body:        []byte("%PDF-1.7 stub"),
		contentType: "application/pdf",
	}, nil
}

func testCapturer(t *testing.T, fieldTimeout time.Duration) *Capturer {
	t.Helper()
	return &Capturer{
		store:   NewStore(t.TempDir(), true),
		cfg:     config.CaptureConfig{FieldTimeout: fieldTimeout},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func recordWithArtifacts(arts ...*models.ArtifactRecord) *models.CanonicalRecord {
	rec := &models.CanonicalRecord{
		EntityID:  "PCGRERA250517",
		Sections:  make(map[string]map[string]string),
		Artifacts: make(map[string]*models.ArtifactRecord),
	}
	for _, a := range arts {
		a.Status = models.ArtifactPending
		rec.Artifacts[a.FieldKey] = a
		rec.ArtifactOrder = append(rec.ArtifactOrder, a.FieldKey)
	}
	return rec
}

func TestRun_ResolvesAndPersists(t *testing.T) {
	c := testCapturer(t, 5*time.Second)
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "approved_layout", Section: "project", Mapped: true, DirectURL: "/docs/layout.pdf"},
		&models.ArtifactRecord{FieldKey: "litigation-details.case-papers", Section: "Litigation Details",
			Trigger: &models.TriggerHint{Text: "View"}},
	)

	drv := &stubDriver{}
	c.run(context.Background(), drv, rec)

	for _, key := range rec.ArtifactOrder {
		art := rec.Artifacts[key]
		if art.Status != models.ArtifactResolved {
			t.Errorf("%s: status = %s, notes = %q", key, art.Status, art.Notes)
		}
		if art.Type != "pdf" || len(art.Files) != 1 {
			t.Errorf("%s: type = %q files = %v", key, art.Type, art.Files)
		}
		if !strings.HasPrefix(art.SourceURL, "https://portal.example.in/doc/") {
			t.Errorf("%s: sourceURL = %q", key, art.SourceURL)
		}
	}

	// Strategy dispatch: href present wins, trigger otherwise.
	want := []string{"direct:approved_layout", "triggered:litigation-details.case-papers"}
	if len(drv.calls) != 2 || drv.calls[0] != want[0] || drv.calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", drv.calls, want)
	}

	path := filepath.Join(c.store.dir, "PCGRERA250517", "approved_layout.pdf")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact file not persisted: %v", err)
	}
}

func TestRun_TimeoutIsIsolatedToOneField(t *testing.T) {
	c := testCapturer(t, 50*time.Millisecond)
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "a", Section: "project", Mapped: true, DirectURL: "/a.pdf"},
		&models.ArtifactRecord{FieldKey: "b", Section: "project", Mapped: true, DirectURL: "/b.pdf"},
		&models.ArtifactRecord{FieldKey: "c", Section: "project", Mapped: true, DirectURL: "/c.pdf"},
	)

	drv := &stubDriver{slow: map[string]bool{"b": true}}
	c.run(context.Background(), drv, rec)

	if rec.Artifacts["a"].Status != models.ArtifactResolved {
		t.Errorf("a should resolve, got %s", rec.Artifacts["a"].Status)
	}
	if rec.Artifacts["b"].Status != models.ArtifactUnresolved {
		t.Errorf("b should be unresolved, got %s", rec.Artifacts["b"].Status)
	}
	if rec.Artifacts["c"].Status != models.ArtifactResolved {
		t.Errorf("timeout on b must not starve c, got %s", rec.Artifacts["c"].Status)
	}

	var found bool
	for _, w := range rec.Warnings {
		if w.Field == "b" && w.Code == models.ErrCodeCaptureTimeout {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s warning for b, got %v", models.ErrCodeCaptureTimeout, rec.Warnings)
	}
}

func TestRun_NavigationFailureRecorded(t *testing.T) {
	c := testCapturer(t, time.Second)
	rec := recordWithArtifacts(
		&models.ArtifactRecord{FieldKey: "k", Section: "project", Mapped: true,
			Trigger: &models.TriggerHint{Selector: "#lnk"}},
	)

	drv := &stubDriver{errs: map[string]error{"k": errNavigation}}
	c.run(context.Background(), drv, rec)

	art := rec.Artifacts["k"]
	if art.Status != models.ArtifactUnresolved || art.Notes == "" {
		t.Errorf("status = %s notes = %q", art.Status, art.Notes)
	}
	if len(rec.Warnings) != 1 || rec.Warnings[0].Code != models.ErrCodeCaptureNavigation {
		t.Errorf("warnings = %v", rec.Warnings)
	}
}

var errNavigation = &models.PipelineError{Code: models.ErrCodeCaptureNavigation, Message: "pop-up never opened"}

func TestRun_NoStrategyIsUnresolved(t *testing.T) {
	c := testCapturer(t, time.Second)
	rec := recordWithArtifacts(&models.ArtifactRecord{FieldKey: "k", Section: "project"})

	c.run(context.Background(), &stubDriver{}, rec)

	if rec.Artifacts["k"].Status != models.ArtifactUnresolved {
		t.Errorf("status = %s", rec.Artifacts["k"].Status)
	}
}

func TestRun_SkipsNonPending(t *testing.T) {
	c := testCapturer(t, time.Second)
	rec := recordWithArtifacts(&models.ArtifactRecord{FieldKey: "k", Section: "project", DirectURL: "/k.pdf"})
	rec.Artifacts["k"].MarkResolved("https://portal.example.in/doc/k", "pdf", []string{"x"})

	drv := &stubDriver{}
	c.run(context.Background(), drv, rec)

	if len(drv.calls) != 0 {
		t.Errorf("resolved artifact must not be re-captured: %v", drv.calls)
	}
}

func TestCategorize(t *testing.T) {
	if got := categorize(context.DeadlineExceeded, "k"); got.Code != models.ErrCodeCaptureTimeout {
		t.Errorf("deadline: %s", got.Code)
	}
	if got := categorize(errNavigation, "k"); got.Code != models.ErrCodeCaptureNavigation {
		t.Errorf("other: %s", got.Code)
	}
}
