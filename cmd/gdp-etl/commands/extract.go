package commands

import (
	"os"

	"gdp-etl/internal/config"
	"gdp-etl/internal/pipeline"
	"gdp-etl/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var extractSort *bool

func init() {
	extractSort = extractCmd.Flags().Bool("sort", false, "Sort by GDP, largest first.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract [--sort]",
	Short: "Extracts and converts the GDP table and prints it without saving anything.",
	Run: func(cmd *cobra.Command, args []string) {
		p, shutdown := setup(cmd.Context(), func(cfg *config.Config) {
			if *extractSort {
				cfg.SortByGDP = true
			}
		})

		records, err := p.Records(cmd.Context())
		shutdown()
		if err != nil {
			serviceutil.Fatal("failed to extract records", err)
		}
		pipeline.PrintRecords(os.Stdout, records)
	},
}
