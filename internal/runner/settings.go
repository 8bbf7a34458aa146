package runner

import (
	"fmt"
	"net/url"
	"strings"
)

// Settings describe one benchmark run. They are read-only once Run starts.
type Settings struct {
	Connections   int      // logical connections, one worker each
	TotalRequests int      // requests shared across all connections
	Target        *url.URL // GET target
}

// ConnectionSettings is the share of a run owned by a single worker.
type ConnectionSettings struct {
	ID       int
	Requests int
	Target   *url.URL
}

// Validate reports the first precondition the settings violate.
func (s Settings) Validate() error {
	if s.Connections < 1 {
		return fmt.Errorf("%w: connections must be at least 1, got %d", ErrInvalidSettings, s.Connections)
	}
	if s.TotalRequests < 0 {
		return fmt.Errorf("%w: total requests must not be negative, got %d", ErrInvalidSettings, s.TotalRequests)
	}
	if s.Target == nil || s.Target.Host == "" {
		return fmt.Errorf("%w: target URL with a host is required", ErrInvalidSettings)
	}
	switch strings.ToLower(s.Target.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported target scheme %q", ErrInvalidSettings, s.Target.Scheme)
	}
	return nil
}

// PerConnection is the number of requests each worker issues.
// The division truncates: TotalRequests % Connections requests are never sent.
func (s Settings) PerConnection() int {
	if s.Connections < 1 {
		return 0
	}
	return s.TotalRequests / s.Connections
}

// Planned is the number of requests the run will actually issue.
func (s Settings) Planned() int {
	return s.PerConnection() * s.Connections
}

// Dropped is the remainder lost to integer division.
func (s Settings) Dropped() int {
	return s.TotalRequests - s.Planned()
}

// ConnectionSettings derives the per-worker settings, one entry per connection.
func (s Settings) ConnectionSettings() []ConnectionSettings {
	if s.Connections < 1 {
		return nil
	}
	per := s.PerConnection()
	conns := make([]ConnectionSettings, s.Connections)
	for i := range conns {
		target := *s.Target
		conns[i] = ConnectionSettings{ID: i, Requests: per, Target: &target}
	}
	return conns
}
