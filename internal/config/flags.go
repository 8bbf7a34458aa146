package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newCommand returns the root command. run receives the positional
// arguments after flag parsing.
func newCommand(run func(cmd *cobra.Command, positional []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "loadcli [flags] <target>",
		Short:         "Concurrent HTTP GET load generator",
		Args:          cobra.MaximumNArgs(1),
		RunE:          run,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	flags.String("target", "", "Target URL (may also be given as the first argument)")
	flags.StringSliceP("header", "H", nil, "Additional request header in key=value form")

	flags.IntP("connections", "c", DefaultConnections, fmt.Sprintf("Number of concurrent connections (max %d)", MaxConnections))
	flags.IntP("requests", "n", DefaultRequests, "Total number of requests, split evenly across connections")
	flags.Int("batch-size", DefaultBatchSize, "Completed requests per progress update")
	flags.Duration("timeout", DefaultTimeout, "Per-request timeout")

	flags.StringP("format", "f", string(FormatTable), "Report format: table, json or yaml")
	flags.StringP("output", "o", "", "Write per-status statistics to a CSV file")
	flags.String("html-output", "", "Write an HTML report to the given file")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.Bool("no-progress", false, "Disable the progress bar")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	flags.StringArray("threshold", nil, "Pass/fail assertion, repeatable (e.g. 'latency:p99 < 500')")

	flags.String("tracing-endpoint", "", "OTLP collector endpoint (host:port)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "", "Service name reported on spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests traced (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Bool("tracing-propagate", true, "Inject W3C trace context headers")

	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")
}
