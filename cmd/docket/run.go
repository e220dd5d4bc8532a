package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/docket/capture"
	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/mapper"
	"github.com/use-agent/docket/models"
	"github.com/use-agent/docket/pipeline"
	"github.com/use-agent/docket/qa"
	"github.com/use-agent/docket/webhook"
)

var (
	runWithCapture bool
	runOutDir      string
	runVerbose     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process persisted pages into canonical records",
	Long: "Extracts and maps every persisted page, optionally captures artifact\n" +
		"placeholders against the live portal, writes one record JSON per entity,\n" +
		"and prints the QA report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := executeRun(ctx, runWithCapture)
		if err != nil {
			return err
		}

		if err := writeRecords(runOutDir, res.Records); err != nil {
			return err
		}
		return qa.Render(os.Stdout, res.Report, runVerbose)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runWithCapture, "capture", false,
		"resolve artifact placeholders against the live portal")
	runCmd.Flags().StringVar(&runOutDir, "out", "records",
		"directory for per-entity record JSON files")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false,
		"include matching fields in the QA table")
	rootCmd.AddCommand(runCmd)
}

// executeRun wires the pipeline from configuration and runs it once. The
// browser session exists only for the duration of the run.
func executeRun(ctx context.Context, withCapture bool) (*pipeline.Result, error) {
	table, err := config.LoadSynonyms(cfg.Pipeline.SynonymTable)
	if err != nil {
		return nil, err
	}
	m, err := mapper.New(table)
	if err != nil {
		return nil, err
	}

	var capturer pipeline.ArtifactCapturer
	if withCapture {
		if cfg.Capture.DetailURL == "" {
			return nil, models.NewPipelineError(models.ErrCodeConfig,
				"capture requires DOCKET_DETAIL_URL", nil)
		}
		sess, err := capture.NewSession(cfg.Browser)
		if err != nil {
			return nil, err
		}
		defer sess.Close()

		store := capture.NewStore(cfg.Capture.ArtifactDir, cfg.Capture.SaveMarkdown)
		capt, err := capture.NewCapturer(sess, store, cfg.Capture, cfg.Browser.DefaultProxy)
		if err != nil {
			return nil, err
		}
		capturer = capt
	}

	p := pipeline.New(pipeline.NewDirSource(cfg.Pipeline.PageDir), m,
		qa.NewComparator(table), capturer, cfg.Pipeline)

	started := time.Now()
	res, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}

	notifyRun(res, started)
	return res, nil
}

// writeRecords persists one JSON document per entity.
func writeRecords(dir string, records map[string]*models.CanonicalRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for id, rec := range records {
		body, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling record %s: %w", id, err)
		}
		path := filepath.Join(dir, id+".json")
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("writing record %s: %w", id, err)
		}
	}
	slog.Info("records written", "dir", dir, "count", len(records))
	return nil
}

// notifyRun delivers the run-completion webhook when one is configured.
func notifyRun(res *pipeline.Result, started time.Time) {
	if cfg.Webhook.URL == "" {
		return
	}

	resolved, failed := 0, 0
	for _, rec := range res.Records {
		for _, art := range rec.Artifacts {
			switch art.Status {
			case models.ArtifactResolved:
				resolved++
			case models.ArtifactUnresolved:
				failed++
			}
		}
	}

	counts := make(map[string]int, len(res.Report.Counts))
	for st, n := range res.Report.Counts {
		counts[string(st)] = n
	}

	webhook.DeliverAsync(cfg.Webhook.URL, cfg.Webhook.Secret, &webhook.Event{
		Type:      "run.completed",
		RunID:     started.UTC().Format("20060102T150405Z"),
		Timestamp: time.Now().Unix(),
		Data: webhook.RunSummary{
			Entities:          len(res.Records),
			ArtifactsResolved: resolved,
			ArtifactsFailed:   failed,
			QACounts:          counts,
			LayoutOutliers:    res.Outliers,
		},
	})
}
