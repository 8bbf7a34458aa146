// Package metrics turns the raw outcomes of a benchmark run into statistics.
//
// # Per-status statistics
//
// [Aggregate] partitions outcomes by HTTP status code and computes, per group:
//   - request count
//   - min and max latency
//   - arithmetic mean
//   - population standard deviation, sqrt(mean of squared deviations)
//   - 90th and 99th percentile
//
// Percentiles use the nearest-rank estimator on the sorted latencies with
// index floor(p*n), clamped to [0, n-1]. Other definitions (linear
// interpolation, ceil-based rank) give different numbers for small samples;
// this one always returns an observed latency and a group with a single
// observation reports that value for every percentile.
//
// All computations run on nanosecond durations. Millisecond mirrors exist
// only for JSON, YAML and CSV output.
//
// # Run summary
//
// [NewSummary] reports totals, success rate and throughput for the whole run.
// Rates are zero rather than NaN when nothing was sent or no time elapsed.
//
//	report := metrics.Summarize(result)
//	for _, row := range report.Statuses {
//		fmt.Println(row.Status, row.Requests, row.P99)
//	}
package metrics
