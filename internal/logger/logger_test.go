package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/torosent/loadcli/internal/logger"
	"github.com/torosent/loadcli/internal/runner"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := logger.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "app=loadcli") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFailureLogger(t *testing.T) {
	var buf bytes.Buffer
	fl := logger.NewFailureLogger(logger.New(&buf, "info"))

	fl.LogFailure(&runner.StatusError{StatusCode: 503, Target: "http://localhost:8080/x"})
	fl.LogFailure(&runner.TransportError{Connection: 1, Request: 2, Err: errors.New("connection refused")})
	fl.LogFailure(nil)

	out := buf.String()
	if !strings.Contains(out, "status=503") {
		t.Errorf("missing status attribute: %q", out)
	}
	if !strings.Contains(out, "connection refused") {
		t.Errorf("missing transport error: %q", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("expected 2 log lines, got %d", got)
	}

	var nilLogger *logger.FailureLogger
	nilLogger.LogFailure(errors.New("ignored"))
}
