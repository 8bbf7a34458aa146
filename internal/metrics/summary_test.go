package metrics_test

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/loadcli/internal/metrics"
	"github.com/torosent/loadcli/internal/runner"
)

func sampleResult() runner.Result {
	target, _ := url.Parse("http://localhost:8080/person")
	res := runner.Result{
		RunID:       ulid.Make(),
		Target:      target,
		Connections: 2,
		Requested:   100,
		Duration:    2 * time.Second,
		Summaries: []runner.ConnectionSummary{
			{ID: 0, Successes: 45, Failures: 5, Duration: 1500 * time.Millisecond},
			{ID: 1, Successes: 45, Failures: 5, Duration: 1900 * time.Millisecond},
		},
	}
	for i := 1; i <= 100; i++ {
		status := 200
		if i%10 == 0 {
			status = 503
		}
		res.Outcomes = append(res.Outcomes, runner.Outcome{Latency: time.Duration(i) * time.Millisecond, StatusCode: status})
	}
	return res
}

func TestSummaryTotalsAndRates(t *testing.T) {
	s := metrics.NewSummary(sampleResult())

	if s.Total != 100 || s.Successes != 90 || s.Failures != 10 {
		t.Fatalf("unexpected totals: %d/%d/%d", s.Total, s.Successes, s.Failures)
	}
	if s.SuccessRate != 0.9 {
		t.Fatalf("expected success rate 0.9, got %f", s.SuccessRate)
	}
	if s.RequestsPerSec != 50 {
		t.Fatalf("expected 50 rps, got %f", s.RequestsPerSec)
	}
	if s.P90Latency < 89*time.Millisecond || s.P90Latency > 91*time.Millisecond {
		t.Fatalf("expected P90 ~90ms, got %s", s.P90Latency)
	}
	if s.FastestConn != 1500*time.Millisecond || s.SlowestConn != 1900*time.Millisecond {
		t.Fatalf("unexpected connection durations: %s/%s", s.FastestConn, s.SlowestConn)
	}
	if s.Target != "http://localhost:8080/person" {
		t.Fatalf("unexpected target %q", s.Target)
	}
}

func TestSummaryGuardsDivisionByZero(t *testing.T) {
	s := metrics.NewSummary(runner.Result{})
	if s.SuccessRate != 0 || s.RequestsPerSec != 0 {
		t.Fatalf("expected zero rates, got %f/%f", s.SuccessRate, s.RequestsPerSec)
	}

	res := sampleResult()
	res.Duration = 0
	if s := metrics.NewSummary(res); s.RequestsPerSec != 0 {
		t.Fatalf("expected zero rps for zero elapsed, got %f", s.RequestsPerSec)
	}
}

func TestReportJSONSchema(t *testing.T) {
	report := metrics.Summarize(sampleResult())

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("failed to marshal report: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	var summary map[string]interface{}
	if err := json.Unmarshal(raw["summary"], &summary); err != nil {
		t.Fatalf("failed to unmarshal summary: %v", err)
	}
	for _, field := range []string{"run_id", "target", "total", "successes", "failures", "success_rate", "requests_per_sec", "duration_ms", "p99_latency_ms"} {
		if _, ok := summary[field]; !ok {
			t.Errorf("missing field %q in summary", field)
		}
	}
	if len(report.Statuses) != 2 {
		t.Fatalf("expected 2 status rows, got %d", len(report.Statuses))
	}
}
