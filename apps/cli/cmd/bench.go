package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/toppk/httpx/packages/bench"
)

var benchCmd = &cobra.Command{
	Use:   "bench <url>",
	Short: "Benchmark an endpoint at a paced request rate",
	Long: `Fire requests at one endpoint for a fixed duration and report
throughput and latency percentiles.

Examples:
  # 100 req/s for 30 seconds
  httpx bench https://api.example.org/health --rate 100 --duration 30s

  # POST benchmark with bounded concurrency
  httpx bench https://api.example.org/items -X POST -d '{"n":1}' \
      --rate 50 --concurrency 20`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

var (
	benchMethodFlag      string
	benchDataFlag        string
	benchRateFlag        float64
	benchDurationFlag    string
	benchConcurrencyFlag int
	benchConfigFlag      string
	benchProfileFlag     string
	benchAuthFlag        string
	benchInsecureFlag    bool
	benchVerboseFlag     bool
	benchNoColorFlag     bool
)

func init() {
	benchCmd.Flags().StringVarP(&benchMethodFlag, "method", "X", "GET", "Request method")
	benchCmd.Flags().StringVarP(&benchDataFlag, "data", "d", "", "Request body")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", 10, "Target requests per second")
	benchCmd.Flags().StringVarP(&benchDurationFlag, "duration", "t", "30s", "Run duration (e.g., 30s, 5m)")
	benchCmd.Flags().IntVar(&benchConcurrencyFlag, "concurrency", 50, "Maximum in-flight requests")
	benchCmd.Flags().StringVarP(&benchConfigFlag, "config", "c", "", "Config file path")
	benchCmd.Flags().StringVarP(&benchProfileFlag, "profile", "p", "", "Config profile name")
	benchCmd.Flags().StringVarP(&benchAuthFlag, "auth", "a", "", "Basic auth credentials (\"user:pass\")")
	benchCmd.Flags().BoolVarP(&benchInsecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	benchCmd.Flags().BoolVarP(&benchVerboseFlag, "verbose", "v", false, "Log connection activity")
	benchCmd.Flags().BoolVar(&benchNoColorFlag, "no-color", false, "Disable colored output")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	url := args[0]

	duration, err := time.ParseDuration(benchDurationFlag)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", benchDurationFlag, err)
	}

	c, err := buildClient(clientFlags{
		configPath: benchConfigFlag,
		profile:    benchProfileFlag,
		auth:       benchAuthFlag,
		insecure:   benchInsecureFlag,
		verbose:    benchVerboseFlag,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runnerOpts []bench.RunnerOption
	runnerOpts = append(runnerOpts,
		bench.WithRate(benchRateFlag),
		bench.WithDuration(duration),
		bench.WithConcurrency(benchConcurrencyFlag),
	)
	if benchDataFlag != "" {
		runnerOpts = append(runnerOpts, bench.WithBody([]byte(benchDataFlag)))
	}

	runner := bench.NewRunner(c, strings.ToUpper(benchMethodFlag), url, runnerOpts...)
	fmt.Fprintf(cmd.OutOrStdout(), "Benchmarking %s for %s at %.0f req/s\n", url, duration, benchRateFlag)

	summary, err := runner.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}

	reporter := bench.NewReporter(
		bench.WithWriter(cmd.OutOrStdout()),
		bench.WithNoColor(benchNoColorFlag),
	)
	reporter.Report(summary)
	return nil
}
