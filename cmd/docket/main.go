// Command docket processes persisted regulatory-portal detail pages into
// canonical records, captures their document artifacts, and reports
// field-level QA diffs.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/docket/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "docket",
	Short: "Regulatory portal record extraction pipeline",
	Long: "Extracts semi-structured fields from persisted portal detail pages, maps them\n" +
		"onto a canonical schema via a synonym table, captures script-triggered document\n" +
		"artifacts through a live browser session, and verifies the result field by field.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		initLogger(cfg.Log)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
