// Package runnertest provides deterministic Requester and Progress doubles.
package runnertest

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torosent/loadcli/internal/runner"
)

// ErrTransport is the default error returned by Failing.
var ErrTransport = errors.New("connection refused")

// Static always answers with the same status.
type Static struct {
	Status int
	Delay  time.Duration
}

func (s Static) Get(ctx context.Context, _ *url.URL) (int, error) {
	if err := wait(ctx, s.Delay); err != nil {
		return 0, err
	}
	return s.Status, nil
}

// Waiting simulates a server whose latency is normally distributed around
// Mean. Samples below zero are clamped to zero.
type Waiting struct {
	Status int
	Mean   time.Duration
	StdDev time.Duration
}

func (w Waiting) Get(ctx context.Context, _ *url.URL) (int, error) {
	d := time.Duration(float64(w.Mean) + rand.NormFloat64()*float64(w.StdDev))
	if err := wait(ctx, max(d, 0)); err != nil {
		return 0, err
	}
	if w.Status == 0 {
		return 200, nil
	}
	return w.Status, nil
}

// Failing never completes a request.
type Failing struct {
	Err error
}

func (f Failing) Get(context.Context, *url.URL) (int, error) {
	if f.Err == nil {
		return 0, ErrTransport
	}
	return 0, f.Err
}

// Cycle hands out statuses round-robin across every caller. Share one Cycle
// between workers to get a fixed global status mix.
type Cycle struct {
	statuses []int
	next     atomic.Uint64
	Delay    time.Duration
}

// NewCycle returns a Cycle over statuses. It panics when statuses is empty.
func NewCycle(statuses ...int) *Cycle {
	if len(statuses) == 0 {
		panic("runnertest: NewCycle needs at least one status")
	}
	return &Cycle{statuses: append([]int(nil), statuses...)}
}

func (c *Cycle) Get(ctx context.Context, _ *url.URL) (int, error) {
	if err := wait(ctx, c.Delay); err != nil {
		return 0, err
	}
	i := c.next.Add(1) - 1
	return c.statuses[i%uint64(len(c.statuses))], nil
}

// Counting counts calls to the wrapped requester.
type Counting struct {
	Inner runner.Requester
	calls atomic.Int64
}

func (c *Counting) Get(ctx context.Context, target *url.URL) (int, error) {
	c.calls.Add(1)
	return c.Inner.Get(ctx, target)
}

// Calls returns how many times Get was invoked.
func (c *Counting) Calls() int64 {
	return c.calls.Load()
}

// Shared returns a factory handing the same requester to every worker.
func Shared(req runner.Requester) runner.RequesterFactory {
	return func(int) (runner.Requester, error) { return req, nil }
}

// RecordingProgress records every notification it receives.
type RecordingProgress struct {
	mu       sync.Mutex
	updates  []uint64
	finished int
}

func (p *RecordingProgress) Update(n uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, n)
}

func (p *RecordingProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished++
}

// Updates returns a copy of the received batch counts.
func (p *RecordingProgress) Updates() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.updates...)
}

// Total is the sum of all received batch counts.
func (p *RecordingProgress) Total() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total uint64
	for _, n := range p.updates {
		total += n
	}
	return total
}

// Finished returns how many times Finish was called.
func (p *RecordingProgress) Finished() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
