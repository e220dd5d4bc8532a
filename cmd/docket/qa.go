package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/use-agent/docket/qa"
)

var (
	qaEntity  string
	qaLimit   int
	qaVerbose bool
)

var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "Run the field-level QA comparison offline",
	Long: "Extracts and maps every persisted page without touching the live portal,\n" +
		"then prints the field-level diff between canonical records and raw pages.\n" +
		"Unresolved artifact placeholders show up as placeholder_unresolved.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := executeRun(ctx, false)
		if err != nil {
			return err
		}

		report := res.Report
		if qaEntity != "" || qaLimit > 0 {
			report = qa.Filter(report, qaEntity, qaLimit)
		}
		return qa.Render(os.Stdout, report, qaVerbose)
	},
}

func init() {
	qaCmd.Flags().StringVar(&qaEntity, "entity", "", "limit the report to one entity ID")
	qaCmd.Flags().IntVar(&qaLimit, "limit", 0, "cap the number of entities reported")
	qaCmd.Flags().BoolVarP(&qaVerbose, "verbose", "v", false, "include matching fields")
	rootCmd.AddCommand(qaCmd)
}
