// Package pipeline orchestrates one processing run: extract persisted pages,
// map them to canonical records, capture artifact placeholders, and verify
// the result with a field-level QA report.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/extract"
	"github.com/use-agent/docket/layout"
	"github.com/use-agent/docket/mapper"
	"github.com/use-agent/docket/models"
	"github.com/use-agent/docket/qa"
)

// ArtifactCapturer resolves a record's artifact placeholders against the
// live portal. A nil capturer runs the pipeline fully offline: placeholders
// stay pending and the QA report flags them as unresolved.
type ArtifactCapturer interface {
	CaptureEntity(ctx context.Context, entityID string, rec *models.CanonicalRecord) error
}

// Result is everything a run produced, keyed by entity ID.
type Result struct {
	Pages   map[string]*models.RawPage
	Records map[string]*models.CanonicalRecord
	Report  *models.QAReport

	// Outliers lists entities whose DOM layout drifted from the run's
	// dominant fingerprint. Their extractions still ran, but the section
	// heuristics may have misfired; a reviewer should look first here.
	Outliers []string
}

type Pipeline struct {
	source   PageSource
	mapper   *mapper.Mapper
	comp     *qa.Comparator
	capturer ArtifactCapturer
	cfg      config.PipelineConfig
}

func New(source PageSource, m *mapper.Mapper, comp *qa.Comparator, capturer ArtifactCapturer, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{source: source, mapper: m, comp: comp, capturer: capturer, cfg: cfg}
}

// Run processes every persisted page. Extraction and mapping are pure and
// fan out across workers; capture holds the single browsing context and runs
// entity by entity; QA compares the final records against the raw pages.
//
// A page that fails to load or extract is skipped with a log line — one
// broken file must not sink the batch.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ids, err := p.source.List()
	if err != nil {
		return nil, err
	}
	slog.Info("pipeline run starting", "entities", len(ids), "workers", p.cfg.Workers)

	res := &Result{
		Pages:   make(map[string]*models.RawPage, len(ids)),
		Records: make(map[string]*models.CanonicalRecord, len(ids)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			html, err := p.source.Load(id)
			if err != nil {
				slog.Error("page load failed, skipping entity", "entityID", id, "error", err)
				return nil
			}

			page, err := extract.Page(id, html)
			if err != nil {
				slog.Error("extraction failed, skipping entity", "entityID", id, "error", err)
				return nil
			}
			rec := p.mapper.Map(page)

			mu.Lock()
			res.Pages[id] = page
			res.Records[id] = rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.capturer != nil {
		for _, id := range ids {
			rec, ok := res.Records[id]
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := p.capturer.CaptureEntity(ctx, id, rec); err != nil {
				slog.Error("artifact capture failed for entity", "entityID", id, "error", err)
				rec.AddWarning(models.ErrCodeCaptureNavigation, "", err.Error())
			}
		}
	}

	var diffs []models.EntityDiff
	for _, id := range ids {
		page, ok := res.Pages[id]
		if !ok {
			continue
		}
		diffs = append(diffs, p.comp.Entity(page, res.Records[id]))
	}
	res.Report = qa.BuildReport(diffs)
	res.Outliers = p.layoutOutliers(ids, res.Pages)

	slog.Info("pipeline run finished",
		"entities", len(res.Records),
		"checkedFields", res.Report.Total,
		"layoutOutliers", len(res.Outliers))
	return res, nil
}

// layoutOutliers flags pages whose DOM fingerprint sits further than the
// drift threshold from the run's dominant layout. The dominant fingerprint
// is the one with the most near neighbours; with fewer than three pages
// there is no meaningful majority to drift from.
func (p *Pipeline) layoutOutliers(ids []string, pages map[string]*models.RawPage) []string {
	if len(pages) < 3 {
		return nil
	}

	var dominant uint64
	best := -1
	for _, id := range ids {
		page, ok := pages[id]
		if !ok {
			continue
		}
		near := 0
		for _, other := range pages {
			if layout.Distance(page.Layout, other.Layout) <= p.cfg.LayoutDriftThreshold {
				near++
			}
		}
		if near > best {
			best = near
			dominant = page.Layout
		}
	}

	var outliers []string
	for _, id := range ids {
		page, ok := pages[id]
		if !ok {
			continue
		}
		if layout.Distance(page.Layout, dominant) > p.cfg.LayoutDriftThreshold {
			slog.Warn("page layout drifts from dominant fingerprint",
				"entityID", id, "distance", layout.Distance(page.Layout, dominant))
			outliers = append(outliers, id)
		}
	}
	return outliers
}
