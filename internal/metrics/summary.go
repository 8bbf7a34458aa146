package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/loadcli/internal/runner"
)

// Summary is the run-wide view across every status code.
type Summary struct {
	RunID          string        `json:"run_id" yaml:"run_id"`
	Target         string        `json:"target" yaml:"target"`
	Connections    int           `json:"connections" yaml:"connections"`
	Requested      int           `json:"requested" yaml:"requested"`
	Total          int64         `json:"total" yaml:"total"`
	Successes      int64         `json:"successes" yaml:"successes"`
	Failures       int64         `json:"failures" yaml:"failures"`
	SuccessRate    float64       `json:"success_rate" yaml:"success_rate"`
	RequestsPerSec float64       `json:"requests_per_sec" yaml:"requests_per_sec"`
	Duration       time.Duration `json:"-" yaml:"-"`
	P50Latency     time.Duration `json:"-" yaml:"-"`
	P90Latency     time.Duration `json:"-" yaml:"-"`
	P99Latency     time.Duration `json:"-" yaml:"-"`
	FastestConn    time.Duration `json:"-" yaml:"-"`
	SlowestConn    time.Duration `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	DurationMs    float64 `json:"duration_ms" yaml:"duration_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms" yaml:"p90_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	FastestConnMs float64 `json:"fastest_connection_ms" yaml:"fastest_connection_ms"`
	SlowestConnMs float64 `json:"slowest_connection_ms" yaml:"slowest_connection_ms"`
}

// Report bundles the run summary with the per-status breakdown.
type Report struct {
	Summary  Summary       `json:"summary" yaml:"summary"`
	Statuses []StatusStats `json:"statuses" yaml:"statuses"`
}

// Summarize builds the full report for a completed run.
func Summarize(res runner.Result) Report {
	return Report{
		Summary:  NewSummary(res),
		Statuses: Aggregate(res.Outcomes),
	}
}

// NewSummary computes run-wide totals and rates. Overall percentiles come
// from an HDR histogram (1µs to 60s, 3 significant figures); they are an
// approximation, unlike the exact per-status figures from Aggregate.
func NewSummary(res runner.Result) Summary {
	s := Summary{
		RunID:       res.RunID.String(),
		Connections: res.Connections,
		Requested:   res.Requested,
		Total:       int64(len(res.Outcomes)),
		Duration:    res.Duration,
	}
	if res.Target != nil {
		s.Target = res.Target.String()
	}

	hist := hdrhistogram.New(1, 60_000_000, 3)
	for _, o := range res.Outcomes {
		if o.Success() {
			s.Successes++
		} else {
			s.Failures++
		}
		recordLatency(hist, o.Latency)
	}

	if s.Total > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Total)
		s.P50Latency = time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond
		s.P90Latency = time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond
		s.P99Latency = time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond
	}
	if res.Duration > 0 && s.Total > 0 {
		s.RequestsPerSec = float64(s.Total) / res.Duration.Seconds()
	}

	for i, conn := range res.Summaries {
		if i == 0 || conn.Duration < s.FastestConn {
			s.FastestConn = conn.Duration
		}
		if conn.Duration > s.SlowestConn {
			s.SlowestConn = conn.Duration
		}
	}

	s.DurationMs = toMillis(s.Duration)
	s.P50LatencyMs = toMillis(s.P50Latency)
	s.P90LatencyMs = toMillis(s.P90Latency)
	s.P99LatencyMs = toMillis(s.P99Latency)
	s.FastestConnMs = toMillis(s.FastestConn)
	s.SlowestConnMs = toMillis(s.SlowestConn)
	return s
}

// recordLatency clamps d into the histogram's trackable range first, which
// is the only condition under which RecordValue returns an error.
func recordLatency(hist *hdrhistogram.Histogram, d time.Duration) {
	us := min(max(d.Microseconds(), hist.LowestTrackableValue()), hist.HighestTrackableValue())
	_ = hist.RecordValue(us)
}
