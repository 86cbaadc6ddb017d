package commands

import (
	"log/slog"

	"gdp-etl/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the whole pipeline: extract, transform, save, load and query.",
	Run:   runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) {
	p, shutdown := setup(cmd.Context(), nil)

	slog.Info("starting run", "run_id", p.RunID)
	result, err := p.Run(cmd.Context())
	shutdown()
	if err != nil {
		serviceutil.Fatal("etl run failed", err)
	}
	slog.Info(
		"run complete",
		"run_id", result.RunID,
		"records", len(result.Records),
		"matches", len(result.Query.Rows),
	)
}
