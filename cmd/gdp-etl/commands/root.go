package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gdp-etl/internal/config"
	"gdp-etl/internal/pipeline"
	"gdp-etl/lib/restyutil"
	"gdp-etl/lib/telemetry"
	"gdp-etl/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	dumpHttp   *string
)

var rootCmd = &cobra.Command{
	Use:   "gdp-etl",
	Short: "gdp-etl loads the nominal GDP of every country into a csv file and a database.",
	Long: `gdp-etl scrapes the IMF estimates from the list of countries by nominal GDP,
converts them to billions of USD, saves them to a csv file and a database table
and prints every economy of at least 100 billion USD.

Running it without a subcommand is the same as "gdp-etl run".`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
	Run: runPipeline,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "gdp-etl.json5", "The config file, a .local variant next to it is merged over it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "Write every HTTP exchange to this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup builds the pipeline of a command, override can adjust the loaded
// config from command flags. The returned function flushes telemetry.
func setup(ctx context.Context, override func(cfg *config.Config)) (pipeline.Pipeline, func()) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if override != nil {
		override(&cfg)
	}

	tel, err := telemetry.Setup(ctx, "gdp-etl", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	shutdown := func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}

	opts := pipeline.Options{Config: cfg}
	if *dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(*dumpHttp)
		if err != nil {
			shutdown()
			serviceutil.Fatal("failed to create http dump directory", err)
		}
		opts.HttpOutput = output
	}

	p, err := pipeline.New(opts)
	if err != nil {
		shutdown()
		serviceutil.Fatal("failed to create pipeline", err)
	}
	return p, shutdown
}
