package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

const (
	tickInterval   = 500 * time.Millisecond
	historyLimit   = 100
	restoreTimeout = 100 * time.Millisecond
)

// RunParams holds the run configuration shown in the parameters panel.
type RunParams struct {
	TargetURL   string
	Connections int
	Requests    int // planned requests after even division
	BatchSize   int
	Timeout     time.Duration
	ConfigFile  string
}

// Dashboard renders a live terminal UI while a benchmark runs. It satisfies
// runner.Progress: the coordinator reports completions through Update and
// the dashboard goroutine renders them on every tick.
type Dashboard struct {
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex
	finishOnce   sync.Once

	grid       *ui.Grid
	gauge      *widgets.Gauge
	throughput *widgets.SparklineGroup
	paramsPara *widgets.Paragraph
	statsPara  *widgets.Paragraph

	tracker *tracker
	params  RunParams
}

// New initializes the terminal and builds the widgets. shutdownFunc is
// called when the user presses q or Ctrl-C.
func New(params RunParams, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		tracker:      newTracker(uint64(params.Requests), time.Now()),
		params:       params,
	}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.gauge = widgets.NewGauge()
	d.gauge.Title = "Completed"
	d.gauge.BarColor = ui.ColorBlue
	d.gauge.BorderStyle.Fg = ui.ColorCyan
	d.gauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	line := widgets.NewSparkline()
	line.Title = "Completions per tick"
	line.LineColor = ui.ColorGreen
	line.Data = []float64{0}

	d.throughput = widgets.NewSparklineGroup(line)
	d.throughput.Title = "Throughput"
	d.throughput.BorderStyle.Fg = ui.ColorCyan

	d.paramsPara = widgets.NewParagraph()
	d.paramsPara.Title = "Run Parameters"
	d.paramsPara.Text = formatParams(d.params)
	d.paramsPara.BorderStyle.Fg = ui.ColorCyan

	d.statsPara = widgets.NewParagraph()
	d.statsPara.Title = "Progress"
	d.statsPara.Text = "Waiting for data..."
	d.statsPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.25,
			ui.NewCol(1.0, d.paramsPara),
		),
		ui.NewRow(0.2,
			ui.NewCol(0.6, d.gauge),
			ui.NewCol(0.4, d.statsPara),
		),
		ui.NewRow(0.55,
			ui.NewCol(1.0, d.throughput),
		),
	)
}

// Start begins the update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Update records n newly completed requests.
func (d *Dashboard) Update(n uint64) {
	d.mu.Lock()
	d.tracker.add(n)
	d.mu.Unlock()
}

// Finish stops the update loop and restores the terminal. Safe to call more
// than once.
func (d *Dashboard) Finish() {
	d.finishOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
		ui.Close()
		time.Sleep(restoreTimeout)
	})
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.update(time.Now())
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Keep rendering until Finish cancels the loop.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case now := <-ticker.C:
			d.update(now)
			d.render()
		}
	}
}

func (d *Dashboard) update(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.tracker.tick(now)

	d.gauge.Percent = snap.percent()
	d.gauge.Label = fmt.Sprintf("%d/%d (%d%%)", snap.completed, snap.total, snap.percent())

	if len(snap.history) > 0 {
		d.throughput.Sparklines[0].Data = snap.history
	}
	d.throughput.Title = fmt.Sprintf("Throughput | Current: %.0f/tick | Peak: %.0f/tick", snap.last(), snap.peak())

	d.statsPara.Text = fmt.Sprintf(
		"Elapsed:      %s\nCompleted:    %d\nRemaining:    %d\nRequests/sec: %.1f",
		snap.elapsed.Round(time.Second),
		snap.completed,
		snap.remaining(),
		snap.rate(),
	)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// tracker holds the counters shared between Update and the render loop.
type tracker struct {
	total     uint64
	completed uint64
	lastTick  uint64
	start     time.Time
	history   []float64
}

func newTracker(total uint64, start time.Time) *tracker {
	return &tracker{
		total:   total,
		start:   start,
		history: make([]float64, 0, historyLimit),
	}
}

func (t *tracker) add(n uint64) {
	t.completed += n
}

type snapshot struct {
	total     uint64
	completed uint64
	elapsed   time.Duration
	history   []float64
}

// tick appends the completions since the previous tick to the history.
func (t *tracker) tick(now time.Time) snapshot {
	delta := t.completed - t.lastTick
	t.lastTick = t.completed
	t.history = append(t.history, float64(delta))
	if len(t.history) > historyLimit {
		t.history = t.history[1:]
	}
	return snapshot{
		total:     t.total,
		completed: t.completed,
		elapsed:   now.Sub(t.start),
		history:   t.history,
	}
}

func (s snapshot) percent() int {
	if s.total == 0 {
		return 100
	}
	p := int(s.completed * 100 / s.total)
	if p > 100 {
		p = 100
	}
	return p
}

func (s snapshot) remaining() uint64 {
	if s.completed >= s.total {
		return 0
	}
	return s.total - s.completed
}

func (s snapshot) rate() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.completed) / s.elapsed.Seconds()
}

func (s snapshot) last() float64 {
	if len(s.history) == 0 {
		return 0
	}
	return s.history[len(s.history)-1]
}

func (s snapshot) peak() float64 {
	var peak float64
	for _, v := range s.history {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// formatParams renders the run configuration, one setting per segment.
func formatParams(p RunParams) string {
	var parts []string

	if p.Connections > 0 {
		parts = append(parts, fmt.Sprintf("Connections: %d", p.Connections))
	}
	if p.Requests > 0 {
		parts = append(parts, fmt.Sprintf("Requests: %d", p.Requests))
	}
	if p.BatchSize > 0 {
		parts = append(parts, fmt.Sprintf("Batch: %d", p.BatchSize))
	}
	if p.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", p.Timeout))
	} else {
		parts = append(parts, "Timeout: none")
	}
	if p.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", p.ConfigFile))
	}

	return fmt.Sprintf("Target: %s\n%s", p.TargetURL, strings.Join(parts, " | "))
}
