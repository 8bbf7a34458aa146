package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/loadcli/internal/metrics"
	"github.com/torosent/loadcli/internal/output"
	"github.com/torosent/loadcli/internal/threshold"
)

func htmlReport() metrics.Report {
	return metrics.Report{
		Summary: metrics.Summary{
			RunID:          "01JAZ0000000000000000000AB",
			Target:         "http://localhost:8080/code/503",
			Connections:    2,
			Requested:      10,
			Total:          10,
			Successes:      8,
			Failures:       2,
			SuccessRate:    0.8,
			RequestsPerSec: 5,
			Duration:       2 * time.Second,
		},
		Statuses: []metrics.StatusStats{
			{Status: 200, Requests: 8, MinMs: 1, MaxMs: 2, MeanMs: 1.5, P90Ms: 2, P99Ms: 2},
			{Status: 503, Requests: 2, MinMs: 3, MaxMs: 4, MeanMs: 3.5, StdDevMs: 0.5, P90Ms: 4, P99Ms: 4},
		},
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	err := output.GenerateHTMLReport(&buf, htmlReport(), output.ReportMetadata{
		BatchSize: 10,
		Timeout:   30 * time.Second,
	})
	if err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"http://localhost:8080/code/503",
		"01JAZ0000000000000000000AB",
		"Latency by Status",
		"3.500",
		"width: 80.0%",
		"badge error",
		"30s",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestGenerateHTMLReport_NoStatuses(t *testing.T) {
	report := htmlReport()
	report.Statuses = nil

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report, output.ReportMetadata{}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No requests were issued.") {
		t.Errorf("expected empty-state message")
	}
}

func TestGenerateHTMLReport_Thresholds(t *testing.T) {
	thresholds, err := threshold.ParseMultiple([]string{"failures:rate < 0.1"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	report := htmlReport()
	results := threshold.NewEvaluator(thresholds).Evaluate(report)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, report, output.ReportMetadata{Thresholds: results}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<h2>Thresholds</h2>", "failures:rate &lt; 0.1", "0.20", ">fail<"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestStatusRowsScaleToSlowestResponse(t *testing.T) {
	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, htmlReport(), output.ReportMetadata{}); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()
	// The 503 row spans 3ms to 4ms of a 4ms axis with p90 at the end.
	for _, want := range []string{
		"left: 75.0%; width: 25.0%",
		"left: 25.0%; width: 25.0%",
		`class="p90" style="left: 100.0%"`,
		"width: 20.0%",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestGenerateHTMLReport_HeadersSorted(t *testing.T) {
	var buf bytes.Buffer
	err := output.GenerateHTMLReport(&buf, htmlReport(), output.ReportMetadata{
		Headers: map[string]string{"X-B": "2", "Accept": "text/plain", "X-A": "1"},
	})
	if err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()
	a, b, c := strings.Index(html, "Accept: text/plain"), strings.Index(html, "X-A: 1"), strings.Index(html, "X-B: 2")
	if a < 0 || !(a < b && b < c) {
		t.Errorf("headers not listed in sorted order: %d %d %d", a, b, c)
	}
}

func TestGenerateHTMLReport_EscapesHTMLInData(t *testing.T) {
	var buf bytes.Buffer
	err := output.GenerateHTMLReport(&buf, htmlReport(), output.ReportMetadata{
		TargetURL: "http://example.com/<script>alert('xss')</script>",
		Headers:   map[string]string{"X-Note": "<b>bold</b>"},
	})
	if err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "<script>alert('xss')</script>") || strings.Contains(html, "<b>bold</b>") {
		t.Errorf("HTML did not escape dangerous content")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("HTML did not properly escape content")
	}
}
