// Package logger builds the slog loggers used by loadcli.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/torosent/loadcli/internal/runner"
)

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("app", "loadcli")
}

// FailureLogger reports failed requests through slog. It satisfies
// runner.FailureLogger and is safe for concurrent use.
type FailureLogger struct {
	log *slog.Logger
}

func NewFailureLogger(log *slog.Logger) *FailureLogger {
	return &FailureLogger{log: log}
}

func (f *FailureLogger) LogFailure(err error) {
	if f == nil || f.log == nil || err == nil {
		return
	}
	var statusErr *runner.StatusError
	if errors.As(err, &statusErr) {
		f.log.Warn("request failed", "status", statusErr.StatusCode, "target", statusErr.Target)
		return
	}
	f.log.Warn("request error", "error", err)
}
