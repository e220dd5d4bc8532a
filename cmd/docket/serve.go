package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/docket/api"
	"github.com/use-agent/docket/cache"
)

var serveWithCapture bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline once and serve records and QA over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cc := cache.New(cfg.Cache.MaxEntries)
		startTime := time.Now()

		res, err := executeRun(ctx, serveWithCapture)
		if err != nil {
			return err
		}
		cc.PutRun(res.Records, res.Report)

		router := api.NewRouter(cfg, cc, startTime)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server error", "error", err)
				os.Exit(1)
			}
		}()

		<-ctx.Done()
		slog.Info("shutdown signal received")

		// Give in-flight requests 5 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		slog.Info("docket stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithCapture, "capture", false,
		"resolve artifact placeholders against the live portal before serving")
	rootCmd.AddCommand(serveCmd)
}
