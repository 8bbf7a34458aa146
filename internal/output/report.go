package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/torosent/loadcli/internal/metrics"
	"github.com/torosent/loadcli/internal/threshold"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// StatusHeaders are the column names shared by the table and CSV sinks.
var StatusHeaders = []string{"status", "requests", "min", "max", "mean", "std", "p90", "p99"}

// PrintReport outputs a human-readable summary followed by the per-status
// latency table. Latencies are in milliseconds.
func PrintReport(w io.Writer, report metrics.Report) {
	s := report.Summary
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("--- Load Test Results ---"))
	fmt.Fprintf(w, "Run:               %s\n", s.RunID)
	fmt.Fprintf(w, "Target:            %s\n", s.Target)
	fmt.Fprintf(w, "Connections:       %d\n", s.Connections)
	fmt.Fprintf(w, "Total Requests:    %d (requested %d)\n", s.Total, s.Requested)
	fmt.Fprintf(w, "Successful:        %d\n", s.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", s.Failures)
	fmt.Fprintf(w, "Success Rate:      %.2f%%\n", s.SuccessRate*100)
	fmt.Fprintf(w, "Duration:          %s\n", s.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", s.RequestsPerSec)
	fmt.Fprintln(w, "\nLatency (all statuses):")
	fmt.Fprintf(w, "  P50:             %s\n", s.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", s.P90Latency)
	fmt.Fprintf(w, "  P99:             %s\n", s.P99Latency)
	fmt.Fprintln(w, "\nConnections:")
	fmt.Fprintf(w, "  Fastest:         %s\n", s.FastestConn)
	fmt.Fprintf(w, "  Slowest:         %s\n", s.SlowestConn)

	if len(report.Statuses) == 0 {
		return
	}
	fmt.Fprintln(w, "\nLatency by status (ms):")
	fmt.Fprintln(w, StatusTable(report.Statuses).Render())
}

// StatusTable renders per-status statistics as a bordered table.
func StatusTable(rows []metrics.StatusStats) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(StatusHeaders...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range rows {
		t.Row(statusRecord(row)...)
	}
	return t
}

func statusRecord(row metrics.StatusStats) []string {
	return []string{
		strconv.Itoa(row.Status),
		strconv.Itoa(row.Requests),
		formatMillis(row.MinMs),
		formatMillis(row.MaxMs),
		formatMillis(row.MeanMs),
		formatMillis(row.StdDevMs),
		formatMillis(row.P90Ms),
		formatMillis(row.P99Ms),
	}
}

func formatMillis(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 3, 64)
}

// PrintThresholdResults lists each assertion with its verdict.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Thresholds:"))
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	if failed := threshold.Failed(results); failed > 0 {
		fmt.Fprintf(w, "%d of %d thresholds failed\n", failed, len(results))
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, report metrics.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
