package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/loadcli/internal/config"
	"github.com/torosent/loadcli/internal/dashboard"
	"github.com/torosent/loadcli/internal/httpclient"
	"github.com/torosent/loadcli/internal/logger"
	"github.com/torosent/loadcli/internal/metrics"
	"github.com/torosent/loadcli/internal/output"
	"github.com/torosent/loadcli/internal/runner"
	"github.com/torosent/loadcli/internal/threshold"
	"github.com/torosent/loadcli/internal/tracing"
)

const tracingShutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr *os.File) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	settings, err := cfg.BenchmarkSettings()
	if err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	log := logger.New(stderr, cfg.LogLevel)

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()
	if provider.Exporting() {
		log.Debug("exporting request spans", "protocol", cfg.Tracing.Protocol, "sample_rate", cfg.Tracing.SampleRate)
	}

	factoryOpts := httpclient.FactoryOptions{
		Timeout:   cfg.Timeout,
		Headers:   cfg.Headers,
		Propagate: provider.ShouldPropagate(),
		Tracer:    provider.Tracer(),
	}
	if cfg.LogErrors {
		factoryOpts.Logger = logger.NewFailureLogger(log)
	}
	factory, err := httpclient.NewFactory(factoryOpts)
	if err != nil {
		return err
	}

	if dropped := settings.Dropped(); dropped > 0 {
		log.Warn("requests do not divide evenly across connections; the remainder is not sent",
			"requests", settings.TotalRequests,
			"connections", settings.Connections,
			"dropped", dropped,
		)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress, err := newProgressSink(cfg, settings, stderr, cancel)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, settings, runner.Options{
		BatchSize: cfg.BatchSize,
		Factory:   factory,
		Progress:  progress,
		Logger:    log,
	})
	if err != nil {
		// Run only finishes the sink on success.
		progress.Finish()
		return err
	}

	report := metrics.Summarize(result)
	if err := writeReport(stdout, cfg.Format, report); err != nil {
		return err
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(report)
	// Verdicts go to stderr so json and yaml reports stay parseable.
	output.PrintThresholdResults(stderr, results)

	if err := writeArtifacts(cfg, report, results, log); err != nil {
		return err
	}
	if failed := threshold.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	return nil
}

func newProgressSink(cfg *config.Config, settings runner.Settings, stderr *os.File, shutdown func()) (runner.Progress, error) {
	if !cfg.Dashboard {
		return output.NewProgress(stderr, settings.Planned(), cfg.NoProgress), nil
	}
	dash, err := dashboard.New(dashboard.RunParams{
		TargetURL:   cfg.TargetURL,
		Connections: settings.Connections,
		Requests:    settings.Planned(),
		BatchSize:   cfg.BatchSize,
		Timeout:     cfg.Timeout,
		ConfigFile:  cfg.ConfigFile,
	}, shutdown)
	if err != nil {
		return nil, err
	}
	dash.Start()
	return dash, nil
}

func writeReport(w io.Writer, format config.OutputFormat, report metrics.Report) error {
	switch format {
	case config.FormatJSON:
		return output.PrintJSONReport(w, report)
	case config.FormatYAML:
		return output.PrintYAMLReport(w, report)
	default:
		output.PrintReport(w, report)
		return nil
	}
}

func writeArtifacts(cfg *config.Config, report metrics.Report, results []threshold.Result, log *slog.Logger) error {
	if cfg.OutputFile != "" {
		if err := output.WriteCSVFile(cfg.OutputFile, report.Statuses); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		log.Info("wrote status table", "path", cfg.OutputFile)
	}

	if cfg.HTMLOutput != "" {
		f, err := os.Create(cfg.HTMLOutput)
		if err != nil {
			return fmt.Errorf("create html report: %w", err)
		}
		err = output.GenerateHTMLReport(f, report, output.ReportMetadata{
			TargetURL:  cfg.TargetURL,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout,
			Headers:    cfg.Headers,
			Thresholds: results,
		})
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		log.Info("wrote html report", "path", cfg.HTMLOutput)
	}
	return nil
}
