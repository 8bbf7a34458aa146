package runner

import (
	"context"
	"fmt"
	"time"
)

// workerDone is the progress message a worker sends once its loop completed.
// Batch counts are always positive, so zero never collides with them.
const workerDone uint64 = 0

// Outcome is the result of one completed request.
type Outcome struct {
	Latency    time.Duration `json:"latency"`
	StatusCode int           `json:"status"`
}

// Success reports whether the status is below 400. The raw status is kept
// for grouping either way.
func (o Outcome) Success() bool {
	return o.StatusCode < 400
}

// ConnectionSummary is everything one worker recorded.
type ConnectionSummary struct {
	ID        int           `json:"id"`
	Outcomes  []Outcome     `json:"-"`
	Successes int           `json:"successes"`
	Failures  int           `json:"failures"`
	Duration  time.Duration `json:"duration"`
}

// worker drives one logical connection. Requests run strictly in sequence.
type worker struct {
	conn      ConnectionSettings
	requester Requester
	batchSize uint64
	progress  chan<- uint64
}

func (w *worker) run(ctx context.Context) (summary ConnectionSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary = ConnectionSummary{}
			err = &TaskFailure{Connection: w.conn.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	summary = ConnectionSummary{
		ID:       w.conn.ID,
		Outcomes: make([]Outcome, 0, w.conn.Requests),
	}
	start := time.Now()

	var batch uint64
	for i := 0; i < w.conn.Requests; i++ {
		if err := ctx.Err(); err != nil {
			return ConnectionSummary{}, err
		}

		reqStart := time.Now()
		status, err := w.requester.Get(ctx, w.conn.Target)
		latency := time.Since(reqStart)
		if err != nil {
			return ConnectionSummary{}, &TransportError{Connection: w.conn.ID, Request: i, Err: err}
		}

		outcome := Outcome{Latency: latency, StatusCode: status}
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Success() {
			summary.Successes++
		} else {
			summary.Failures++
		}

		batch++
		if batch >= w.batchSize {
			if err := w.send(ctx, batch); err != nil {
				return ConnectionSummary{}, err
			}
			batch = 0
		}
	}

	if batch > 0 {
		if err := w.send(ctx, batch); err != nil {
			return ConnectionSummary{}, err
		}
	}
	summary.Duration = time.Since(start)

	if err := w.send(ctx, workerDone); err != nil {
		return ConnectionSummary{}, err
	}
	return summary, nil
}

// send blocks until the coordinator accepts the message or the run is
// cancelled, so a worker never hangs after the drain loop has stopped.
func (w *worker) send(ctx context.Context, n uint64) error {
	select {
	case w.progress <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
