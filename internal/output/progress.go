package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"golang.org/x/time/rate"

	"github.com/torosent/loadcli/internal/runner"
)

const (
	barWidth          = 40
	interactiveRedraw = 100 * time.Millisecond
	plainRedraw       = time.Second
)

// NewProgress picks the progress sink for a run of total requests: nothing
// when disabled, an interactive bubbletea bar when f is a terminal, and a
// line-per-second bar otherwise.
func NewProgress(f *os.File, total int, disabled bool) runner.Progress {
	if disabled || f == nil {
		return runner.NopProgress{}
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return NewTeaProgress(f, total)
	}
	return NewBarProgress(f, total, false)
}

// BarProgress renders a progress bar to a writer. Updates arrive from the
// coordinator goroutine only; redraws are throttled.
type BarProgress struct {
	w           io.Writer
	bar         progress.Model
	total       uint64
	done        uint64
	start       time.Time
	redraw      *rate.Sometimes
	interactive bool
}

// NewBarProgress creates a bar for total requests. Interactive bars redraw
// in place; plain bars print one line per redraw.
func NewBarProgress(w io.Writer, total int, interactive bool) *BarProgress {
	if w == nil {
		w = io.Discard
	}
	interval := plainRedraw
	if interactive {
		interval = interactiveRedraw
	}
	return &BarProgress{
		w:           w,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		total:       uint64(max(total, 0)),
		start:       time.Now(),
		redraw:      &rate.Sometimes{Interval: interval},
		interactive: interactive,
	}
}

func (p *BarProgress) Update(n uint64) {
	p.done += n
	p.redraw.Do(p.render)
}

func (p *BarProgress) Finish() {
	p.render()
	if p.interactive {
		fmt.Fprintln(p.w)
	}
}

// Completed returns the number of requests reported so far.
func (p *BarProgress) Completed() uint64 {
	return p.done
}

func (p *BarProgress) render() {
	line := progressLine(p.bar, p.done, p.total, time.Since(p.start))
	if p.interactive {
		fmt.Fprint(p.w, "\r"+line)
		return
	}
	fmt.Fprintln(p.w, line)
}

func progressLine(bar progress.Model, done, total uint64, elapsed time.Duration) string {
	rps := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rps = float64(done) / secs
	}
	return fmt.Sprintf("%s %d/%d | %.1f req/s | %s",
		bar.ViewAs(fraction(done, total)), done, total, rps, elapsed.Truncate(time.Millisecond))
}

func fraction(done, total uint64) float64 {
	if total == 0 {
		return 1
	}
	return min(float64(done)/float64(total), 1)
}

type progressMsg uint64

type finishMsg struct{}

type progressModel struct {
	bar   progress.Model
	done  uint64
	total uint64
	start time.Time
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done = uint64(msg)
		return m, nil
	case finishMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = min(barWidth, max(msg.Width-40, 10))
		return m, nil
	}
	return m, nil
}

func (m progressModel) View() string {
	return progressLine(m.bar, m.done, m.total, time.Since(m.start)) + "\n"
}

// TeaProgress drives a bubbletea program showing the bar. Signals are left
// to the caller so Ctrl-C cancels the run context rather than the program.
type TeaProgress struct {
	program *tea.Program
	done    uint64
	sends   *rate.Sometimes
	exited  chan struct{}
	once    sync.Once
}

func NewTeaProgress(w io.Writer, total int) *TeaProgress {
	model := progressModel{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		total: uint64(max(total, 0)),
		start: time.Now(),
	}
	p := &TeaProgress{
		program: tea.NewProgram(model,
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		sends:  &rate.Sometimes{Interval: interactiveRedraw},
		exited: make(chan struct{}),
	}
	go func() {
		defer close(p.exited)
		_, _ = p.program.Run()
	}()
	return p
}

func (p *TeaProgress) Update(n uint64) {
	p.done += n
	p.sends.Do(func() {
		p.program.Send(progressMsg(p.done))
	})
}

// Finish renders the final count and waits for the program to exit. It is
// safe to call more than once, including after a failed run.
func (p *TeaProgress) Finish() {
	p.once.Do(func() {
		p.program.Send(progressMsg(p.done))
		p.program.Send(finishMsg{})
		<-p.exited
	})
}
