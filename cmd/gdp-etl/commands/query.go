package commands

import (
	"gdp-etl/internal/config"
	"gdp-etl/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var queryMin *float64

func init() {
	queryMin = queryCmd.Flags().Float64("min", config.DefaultMinGDP, "The minimum GDP in billions of USD.")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query [--min N]",
	Short: "Queries the table loaded by the last run for economies of at least N billion USD.",
	Run: func(cmd *cobra.Command, args []string) {
		p, shutdown := setup(cmd.Context(), func(cfg *config.Config) {
			if cmd.Flags().Changed("min") {
				cfg.Query.MinGDPBillions = *queryMin
			}
		})

		_, err := p.Query(cmd.Context())
		shutdown()
		if err != nil {
			serviceutil.Fatal("query failed", err)
		}
	},
}
