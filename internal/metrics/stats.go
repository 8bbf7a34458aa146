package metrics

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/torosent/loadcli/internal/runner"
)

// StatusStats describes the latency distribution of one status code.
type StatusStats struct {
	Status   int           `json:"status" yaml:"status"`
	Requests int           `json:"requests" yaml:"requests"`
	Min      time.Duration `json:"-" yaml:"-"`
	Max      time.Duration `json:"-" yaml:"-"`
	Mean     time.Duration `json:"-" yaml:"-"`
	StdDev   time.Duration `json:"-" yaml:"-"`
	P90      time.Duration `json:"-" yaml:"-"`
	P99      time.Duration `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	MinMs    float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs    float64 `json:"max_ms" yaml:"max_ms"`
	MeanMs   float64 `json:"mean_ms" yaml:"mean_ms"`
	StdDevMs float64 `json:"std_ms" yaml:"std_ms"`
	P90Ms    float64 `json:"p90_ms" yaml:"p90_ms"`
	P99Ms    float64 `json:"p99_ms" yaml:"p99_ms"`
}

// GroupByStatus partitions latencies by status code. Within a group the
// completion order of the input is kept.
func GroupByStatus(outcomes []runner.Outcome) map[int][]time.Duration {
	groups := make(map[int][]time.Duration)
	for _, o := range outcomes {
		groups[o.StatusCode] = append(groups[o.StatusCode], o.Latency)
	}
	return groups
}

// Aggregate computes StatusStats for every status in outcomes, ordered by
// status code.
func Aggregate(outcomes []runner.Outcome) []StatusStats {
	groups := GroupByStatus(outcomes)
	if len(groups) == 0 {
		return nil
	}
	statuses := make([]int, 0, len(groups))
	for status := range groups {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)

	rows := make([]StatusStats, 0, len(statuses))
	for _, status := range statuses {
		stats := Describe(groups[status])
		stats.Status = status
		rows = append(rows, stats)
	}
	return rows
}

// Describe computes count, min, max, mean, population standard deviation and
// the 90th/99th percentiles of latencies. The input is not modified.
// An empty input yields a zero value.
func Describe(latencies []time.Duration) StatusStats {
	n := len(latencies)
	if n == 0 {
		return StatusStats{}
	}

	minLatency, maxLatency := latencies[0], latencies[0]
	var sum float64
	for _, l := range latencies {
		if l < minLatency {
			minLatency = l
		}
		if l > maxLatency {
			maxLatency = l
		}
		sum += float64(l)
	}
	mean := sum / float64(n)

	var squares float64
	for _, l := range latencies {
		d := float64(l) - mean
		squares += d * d
	}
	stdDev := math.Sqrt(squares / float64(n))

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	stats := StatusStats{
		Requests: n,
		Min:      minLatency,
		Max:      maxLatency,
		Mean:     time.Duration(math.Round(mean)),
		StdDev:   time.Duration(math.Round(stdDev)),
		P90:      Percentile(sorted, 0.90),
		P99:      Percentile(sorted, 0.99),
	}
	stats.MinMs = toMillis(stats.Min)
	stats.MaxMs = toMillis(stats.Max)
	stats.MeanMs = mean / float64(time.Millisecond)
	stats.StdDevMs = stdDev / float64(time.Millisecond)
	stats.P90Ms = toMillis(stats.P90)
	stats.P99Ms = toMillis(stats.P99)
	return stats
}

// Percentile returns the nearest-rank percentile of an ascending slice:
// the element at floor(p*n), clamped to the slice bounds. No interpolation
// happens between neighbours, so small samples always report an observed
// value. p is a fraction in [0, 1].
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
