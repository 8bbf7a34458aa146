package output

import (
	"cmp"
	"fmt"
	"html/template"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/torosent/loadcli/internal/metrics"
	"github.com/torosent/loadcli/internal/threshold"
)

// ReportMetadata carries the run parameters that are not part of the
// metrics report itself.
type ReportMetadata struct {
	TargetURL  string
	BatchSize  int
	Timeout    time.Duration
	Headers    map[string]string
	Thresholds []threshold.Result
}

// htmlPage is the view model rendered by pageTemplate.
type htmlPage struct {
	Target      string
	GeneratedAt string
	Summary     metrics.Summary
	Rows        []statusRow
	Thresholds  []threshold.Result
	Params      []param
}

// statusRow adds the geometry of the latency strip to one status line.
// Offsets are percentages of the slowest response across all statuses.
type statusRow struct {
	metrics.StatusStats
	Share     float64
	Failing   bool
	SpanStart float64
	SpanWidth float64
	P90At     float64
}

type param struct {
	Label string
	Value string
}

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"ms":      formatMillis,
	"pct":     func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"num":     func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"elapsed": func(d time.Duration) string { return d.Truncate(time.Microsecond).String() },
}).Parse(pageHTML))

// GenerateHTMLReport writes a self-contained HTML page for a finished run.
func GenerateHTMLReport(w io.Writer, report metrics.Report, metadata ReportMetadata) error {
	page := htmlPage{
		Target:      cmp.Or(metadata.TargetURL, report.Summary.Target),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary:     report.Summary,
		Rows:        statusRows(report.Statuses, report.Summary.Total),
		Thresholds:  metadata.Thresholds,
		Params:      runParams(report.Summary, metadata),
	}
	if err := pageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

func statusRows(statuses []metrics.StatusStats, total int64) []statusRow {
	var slowest float64
	for _, s := range statuses {
		slowest = max(slowest, s.MaxMs)
	}
	scale := func(ms float64) float64 {
		if slowest == 0 {
			return 0
		}
		return ms / slowest * 100
	}

	rows := make([]statusRow, 0, len(statuses))
	for _, s := range statuses {
		row := statusRow{
			StatusStats: s,
			Failing:     s.Status >= 400,
			SpanStart:   scale(s.MinMs),
			SpanWidth:   scale(s.MaxMs - s.MinMs),
			P90At:       scale(s.P90Ms),
		}
		if total > 0 {
			row.Share = float64(s.Requests) / float64(total) * 100
		}
		rows = append(rows, row)
	}
	return rows
}

func runParams(s metrics.Summary, md ReportMetadata) []param {
	params := []param{
		{"Run", s.RunID},
		{"Connections", fmt.Sprint(s.Connections)},
		{"Requested", fmt.Sprint(s.Requested)},
		{"Fastest connection", s.FastestConn.Truncate(time.Microsecond).String()},
		{"Slowest connection", s.SlowestConn.Truncate(time.Microsecond).String()},
	}
	if md.BatchSize > 0 {
		params = append(params, param{"Batch size", fmt.Sprint(md.BatchSize)})
	}
	if md.Timeout > 0 {
		params = append(params, param{"Timeout", md.Timeout.String()})
	}
	for _, key := range slices.Sorted(maps.Keys(md.Headers)) {
		params = append(params, param{"Header", key + ": " + md.Headers[key]})
	}
	return params
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>loadcli: {{.Target}}</title>
<style>
  :root { --ok: #2f9e44; --bad: #e03131; --ink: #212529; --muted: #868e96; --rule: #dee2e6; --accent: #1c7ed6; }
  body { margin: 0; font: 14px/1.5 ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; color: var(--ink); background: #f8f9fa; }
  main { max-width: 1100px; margin: 32px auto; padding: 0 24px; }
  h1 { font-size: 20px; margin: 0 0 4px; }
  h2 { font-size: 15px; margin: 32px 0 8px; text-transform: lowercase; color: var(--accent); }
  .sub { color: var(--muted); }
  .totals { display: flex; flex-wrap: wrap; gap: 12px; margin-top: 20px; }
  .totals div { flex: 1 1 160px; background: #fff; border: 1px solid var(--rule); padding: 12px 16px; }
  .totals b { display: block; font-size: 22px; }
  .totals .ok b { color: var(--ok); }
  .totals .bad b { color: var(--bad); }
  table { width: 100%; border-collapse: collapse; background: #fff; border: 1px solid var(--rule); }
  th, td { padding: 6px 10px; border-bottom: 1px solid var(--rule); text-align: right; white-space: nowrap; }
  th { font-weight: normal; color: var(--muted); }
  th:first-child, td:first-child { text-align: left; }
  td.strip { width: 35%; }
  .badge { padding: 1px 8px; border: 1px solid var(--ok); color: var(--ok); }
  .badge.error { border-color: var(--bad); color: var(--bad); }
  .track { position: relative; height: 10px; background: #f1f3f5; }
  .track .span { position: absolute; top: 2px; height: 6px; background: var(--accent); opacity: .5; }
  .track .p90 { position: absolute; top: 0; width: 2px; height: 10px; background: var(--ink); }
  .share { display: block; height: 4px; background: var(--accent); }
  .empty { padding: 24px; text-align: center; color: var(--muted); background: #fff; border: 1px solid var(--rule); }
  dl { display: grid; grid-template-columns: max-content 1fr; gap: 2px 24px; margin: 0; }
  dt { color: var(--muted); }
  dd { margin: 0; }
</style>
</head>
<body>
<main>
  <h1>{{.Target}}</h1>
  <div class="sub">{{.Summary.Total}} requests in {{elapsed .Summary.Duration}} | generated {{.GeneratedAt}}</div>

  <div class="totals">
    <div>requests<b>{{.Summary.Total}}</b></div>
    <div class="ok">status &lt; 400<b>{{.Summary.Successes}}</b></div>
    <div class="bad">status &gt;= 400<b>{{.Summary.Failures}}</b></div>
    <div>req/s<b>{{num .Summary.RequestsPerSec}}</b></div>
    <div>p50 / p99<b>{{elapsed .Summary.P50Latency}} / {{elapsed .Summary.P99Latency}}</b></div>
  </div>

  <h2>Latency by Status (ms)</h2>
  {{if .Rows}}
  <table>
    <tr><th>status</th><th>requests</th><th>share</th><th>min</th><th>mean</th><th>std</th><th>p90</th><th>p99</th><th>max</th><th>min to max, p90 marked</th></tr>
    {{range .Rows}}
    <tr>
      <td><span class="badge{{if .Failing}} error{{end}}">{{.Status}}</span></td>
      <td>{{.Requests}}</td>
      <td>{{pct .Share}}%<span class="share" style="width: {{pct .Share}}%"></span></td>
      <td>{{ms .MinMs}}</td>
      <td>{{ms .MeanMs}}</td>
      <td>{{ms .StdDevMs}}</td>
      <td>{{ms .P90Ms}}</td>
      <td>{{ms .P99Ms}}</td>
      <td>{{ms .MaxMs}}</td>
      <td class="strip"><div class="track"><span class="span" style="left: {{pct .SpanStart}}%; width: {{pct .SpanWidth}}%"></span><span class="p90" style="left: {{pct .P90At}}%"></span></div></td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <div class="empty">No requests were issued.</div>
  {{end}}

  {{if .Thresholds}}
  <h2>Thresholds</h2>
  <table>
    <tr><th>assertion</th><th>actual</th><th>verdict</th></tr>
    {{range .Thresholds}}
    <tr>
      <td>{{.Threshold.Raw}}</td>
      <td>{{num .Actual}}</td>
      <td>{{if .Pass}}<span class="badge">pass</span>{{else}}<span class="badge error">fail</span>{{end}}</td>
    </tr>
    {{end}}
  </table>
  {{end}}

  <h2>Run</h2>
  <dl>
    {{range .Params}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>
    {{end}}
  </dl>
</main>
</body>
</html>
`
