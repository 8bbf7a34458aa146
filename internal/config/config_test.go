package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/loadcli/internal/config"
	"github.com/torosent/loadcli/internal/runner"
)

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{"http://localhost:8080/person"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "http://localhost:8080/person" {
		t.Errorf("TargetURL = %q, want positional target", cfg.TargetURL)
	}
	if cfg.Connections != 512 {
		t.Errorf("Connections = %d, want 512", cfg.Connections)
	}
	if cfg.Requests != 100000 {
		t.Errorf("Requests = %d, want 100000", cfg.Requests)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.Format != config.FormatTable {
		t.Errorf("Format = %q, want table", cfg.Format)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if len(cfg.Headers) != 0 {
		t.Errorf("Headers len = %d, want 0", len(cfg.Headers))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadWithoutArgsRequestsHelp(t *testing.T) {
	_, err := config.NewLoader().Load(nil)
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load(nil) error = %v, want ErrHelpRequested", err)
	}
}

func TestLoadHelpFlag(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		cfg, err := config.NewLoader().Load([]string{arg})
		if !errors.Is(err, config.ErrHelpRequested) || cfg != nil {
			t.Errorf("Load(%s) = %v, %v; want nil, ErrHelpRequested", arg, cfg, err)
		}
	}
}

func TestLoadReportsBadFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := os.WriteFile(path, []byte("target: http://localhost:8080\nconnections: many\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err := config.NewLoader().Load([]string{"--config", path})
	if err == nil || !strings.Contains(err.Error(), "connections") {
		t.Fatalf("Load() error = %v, want one naming connections", err)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("Load() error = %v, want a read config error", err)
	}
}

func TestLoadRejectsExtraArguments(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"http://a.example", "http://b.example"})
	if err == nil {
		t.Fatal("Load() with two targets should fail")
	}
}

func TestTargetFlagWinsOverPositional(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{"--target", "http://flag.example", "http://arg.example"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TargetURL != "http://flag.example" {
		t.Errorf("TargetURL = %q, want http://flag.example", cfg.TargetURL)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"target": "https://api.example.com",
		"headers": {"Accept": "application/json"},
		"connections": 10,
		"requests": 500,
		"batch_size": 5,
		"timeout": "45s",
		"format": "json",
		"output_file": "stats.csv",
		"tracing": {"endpoint": "localhost:4318", "protocol": "http", "sample_rate": 0.5}
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "-c", "20", "--header", "Authorization=Bearer token"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "https://api.example.com" {
		t.Errorf("TargetURL = %q, want https://api.example.com", cfg.TargetURL)
	}
	if cfg.Connections != 20 {
		t.Errorf("Connections = %d, want flag override 20", cfg.Connections)
	}
	if cfg.Requests != 500 {
		t.Errorf("Requests = %d, want 500", cfg.Requests)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", cfg.Timeout)
	}
	if cfg.Format != config.FormatJSON {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.OutputFile != "stats.csv" {
		t.Errorf("OutputFile = %q, want stats.csv", cfg.OutputFile)
	}
	if cfg.Headers["Accept"] != "application/json" {
		t.Errorf("Headers[Accept] = %q, want application/json", cfg.Headers["Accept"])
	}
	if cfg.Headers["Authorization"] != "Bearer token" {
		t.Errorf("Headers[Authorization] = %q, want Bearer token", cfg.Headers["Authorization"])
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Tracing.Protocol != "http" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v, want endpoint/protocol/sample_rate from file", cfg.Tracing)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"target: http://localhost:8080/slow",
		"connections: 4",
		"requests: 40",
		"dashboard: true",
		"log_errors: true",
		"log_level: debug",
		"tracing:",
		"  endpoint: collector:4317",
		"  insecure: true",
		"  propagate: false",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetURL != "http://localhost:8080/slow" {
		t.Errorf("TargetURL = %q", cfg.TargetURL)
	}
	if cfg.Connections != 4 || cfg.Requests != 40 {
		t.Errorf("Connections/Requests = %d/%d, want 4/40", cfg.Connections, cfg.Requests)
	}
	if !cfg.Dashboard || !cfg.LogErrors {
		t.Errorf("Dashboard/LogErrors = %v/%v, want true/true", cfg.Dashboard, cfg.LogErrors)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.Tracing.Insecure || cfg.Tracing.ShouldPropagate() {
		t.Errorf("Tracing = %+v, want insecure without propagation", cfg.Tracing)
	}
}

func TestConfigValidationErrors(t *testing.T) {
	valid := config.Config{
		TargetURL:   "http://example.com",
		Connections: 1,
		BatchSize:   1,
	}
	cases := []struct {
		name string
		have func(c *config.Config)
		want []string
	}{
		{
			name: "missing target",
			have: func(c *config.Config) { c.TargetURL = "" },
			want: []string{"target"},
		},
		{
			name: "unsupported scheme",
			have: func(c *config.Config) { c.TargetURL = "ftp://example.com" },
			want: []string{"scheme"},
		},
		{
			name: "negative values",
			have: func(c *config.Config) {
				c.Connections = 0
				c.Requests = -1
				c.BatchSize = 0
				c.Timeout = -1
			},
			want: []string{"connections", "requests", "batch_size", "timeout"},
		},
		{
			name: "too many connections",
			have: func(c *config.Config) { c.Connections = config.MaxConnections + 1 },
			want: []string{"65532"},
		},
		{
			name: "format",
			have: func(c *config.Config) { c.Format = "xml" },
			want: []string{"format"},
		},
		{
			name: "dashboard with json",
			have: func(c *config.Config) {
				c.Dashboard = true
				c.Format = config.FormatJSON
			},
			want: []string{"dashboard"},
		},
		{
			name: "threshold",
			have: func(c *config.Config) { c.Thresholds = []string{"latency:p99 < 500", "nonsense"} },
			want: []string{"threshold[1]"},
		},
		{
			name: "tracing",
			have: func(c *config.Config) {
				c.Tracing.Protocol = "thrift"
				c.Tracing.SampleRate = 2
			},
			want: []string{"protocol", "sample_rate"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.have(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) || len(verr.Issues()) == 0 {
				t.Fatalf("Validate() error %T, want ValidationError with issues", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}

func TestBenchmarkSettings(t *testing.T) {
	cfg := config.Config{TargetURL: "http://localhost:8080/person", Connections: 3, Requests: 10}
	s, err := cfg.BenchmarkSettings()
	if err != nil {
		t.Fatalf("BenchmarkSettings() error = %v", err)
	}
	if s.Connections != 3 || s.TotalRequests != 10 || s.Target.Host != "localhost:8080" {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", s.Dropped())
	}

	cfg.Connections = 0
	if _, err := cfg.BenchmarkSettings(); !errors.Is(err, runner.ErrInvalidSettings) {
		t.Fatalf("BenchmarkSettings() error = %v, want ErrInvalidSettings", err)
	}
}

func TestTracingConfigPropagation(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if (config.TracingConfig{}).ShouldPropagate() {
		t.Error("empty tracing config should not propagate")
	}
	if !(config.TracingConfig{Endpoint: "localhost:4317"}).ShouldPropagate() {
		t.Error("endpoint should enable propagation by default")
	}
	off := false
	if (config.TracingConfig{Endpoint: "localhost:4317", Propagate: &off}).ShouldPropagate() {
		t.Error("explicit propagate=false should win")
	}
}
