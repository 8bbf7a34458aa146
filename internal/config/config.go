package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/torosent/loadcli/internal/runner"
	"github.com/torosent/loadcli/internal/threshold"
)

const (
	DefaultConnections = 512
	// MaxConnections keeps one local port free per connection on a single
	// source address.
	MaxConnections   = 65532
	DefaultRequests  = 100000
	DefaultBatchSize = runner.DefaultBatchSize
	DefaultTimeout   = 30 * time.Second
	DefaultLogLevel  = "info"
)

type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

type Config struct {
	TargetURL   string            `mapstructure:"target"`
	Headers     map[string]string `mapstructure:"headers"`
	Connections int               `mapstructure:"connections"`
	Requests    int               `mapstructure:"requests"`
	BatchSize   int               `mapstructure:"batch_size"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Format      OutputFormat      `mapstructure:"format"`
	OutputFile  string            `mapstructure:"output_file"`
	HTMLOutput  string            `mapstructure:"html_output"`
	Dashboard   bool              `mapstructure:"dashboard"`
	NoProgress  bool              `mapstructure:"no_progress"`
	LogErrors   bool              `mapstructure:"log_errors"`
	LogLevel    string            `mapstructure:"log_level"`
	Thresholds  []string          `mapstructure:"thresholds"`
	ConfigFile  string            `mapstructure:"-"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// TracingConfig configures OpenTelemetry export for outgoing requests.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether an exporter endpoint is configured, either
// explicitly or through OTEL_EXPORTER_OTLP_ENDPOINT, or propagation was
// switched on by itself.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		return true
	}
	return t.Propagate != nil && *t.Propagate
}

// ShouldPropagate defaults to true once tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else if u, err := url.Parse(target); err != nil {
		issues = append(issues, fmt.Sprintf("target: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		issues = append(issues, fmt.Sprintf("target scheme %q is not supported (use http or https)", u.Scheme))
	} else if u.Host == "" {
		issues = append(issues, "target must include a host")
	}

	if c.Connections < 1 {
		issues = append(issues, "connections must be >= 1")
	}
	if c.Connections > MaxConnections {
		issues = append(issues, fmt.Sprintf("connections must be <= %d", MaxConnections))
	}
	if c.Requests < 0 {
		issues = append(issues, "requests must be >= 0")
	}
	if c.BatchSize < 1 {
		issues = append(issues, "batch_size must be >= 1")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}

	switch c.Format {
	case "", FormatTable, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format %q is not supported (use table, json or yaml)", c.Format))
	}
	if c.Dashboard && (c.Format == FormatJSON || c.Format == FormatYAML) {
		issues = append(issues, "dashboard and machine-readable format are mutually exclusive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}

	if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
		issues = append(issues, err.Error())
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}
	return issues
}

// BenchmarkSettings converts the configuration into runner settings.
func (c Config) BenchmarkSettings() (runner.Settings, error) {
	target, err := url.Parse(strings.TrimSpace(c.TargetURL))
	if err != nil {
		return runner.Settings{}, fmt.Errorf("target: %w", err)
	}
	s := runner.Settings{
		Connections:   c.Connections,
		TotalRequests: c.Requests,
		Target:        target,
	}
	if err := s.Validate(); err != nil {
		return runner.Settings{}, err
	}
	return s, nil
}
