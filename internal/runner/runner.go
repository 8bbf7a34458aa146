package runner

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// Result captures one completed benchmark run.
type Result struct {
	RunID       ulid.ULID           `json:"run_id"`
	Target      *url.URL            `json:"-"`
	Connections int                 `json:"connections"`
	Requested   int                 `json:"requested"`
	Duration    time.Duration       `json:"duration"`
	Outcomes    []Outcome           `json:"-"`
	Summaries   []ConnectionSummary `json:"summaries"`
}

// Run executes the benchmark described by settings and blocks until every
// worker finished or the first one failed. A failure in any worker cancels
// the others and Run returns that error with no partial result.
func Run(ctx context.Context, settings Settings, opt Options) (Result, error) {
	opt.normalize()
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}
	if opt.Factory == nil {
		return Result{}, fmt.Errorf("%w: requester factory is required", ErrInvalidSettings)
	}

	conns := settings.ConnectionSettings()
	// Capacity of one message per connection lets every worker post its
	// final sentinel without waiting on the consumer.
	progress := make(chan uint64, len(conns))

	workers := make([]*worker, len(conns))
	for i, conn := range conns {
		req, err := opt.Factory(conn.ID)
		if err != nil {
			return Result{}, &TaskFailure{Connection: conn.ID, Err: err}
		}
		workers[i] = &worker{
			conn:      conn,
			requester: req,
			batchSize: uint64(opt.BatchSize),
			progress:  progress,
		}
	}

	opt.Logger.Debug("benchmark starting",
		"target", settings.Target.String(),
		"connections", settings.Connections,
		"per_connection", settings.PerConnection(),
		"dropped", settings.Dropped(),
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	summaries := make([]ConnectionSummary, len(workers))
	for i, w := range workers {
		g.Go(func() error {
			summary, err := w.run(gctx)
			if err != nil {
				opt.Logger.Debug("worker failed", "connection", w.conn.ID, "error", err)
				return err
			}
			summaries[i] = summary
			return nil
		})
	}

	drain(gctx, progress, len(workers), opt.Progress)

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	elapsed := time.Since(start)

	result := Result{
		RunID:       ulid.Make(),
		Target:      settings.Target,
		Connections: settings.Connections,
		Requested:   settings.TotalRequests,
		Duration:    elapsed,
		Outcomes:    make([]Outcome, 0, settings.Planned()),
		Summaries:   make([]ConnectionSummary, len(summaries)),
	}
	for i, summary := range summaries {
		result.Outcomes = append(result.Outcomes, summary.Outcomes...)
		summary.Outcomes = nil
		result.Summaries[i] = summary
	}
	opt.Progress.Finish()

	opt.Logger.Debug("benchmark finished", "run_id", result.RunID.String(), "requests", len(result.Outcomes), "elapsed", elapsed)
	return result, nil
}

// drain feeds batch counts to the progress sink until every worker has sent
// its completion sentinel, or the run is cancelled.
func drain(ctx context.Context, progress <-chan uint64, workers int, sink Progress) {
	finished := 0
	for finished < workers {
		select {
		case n := <-progress:
			if n == workerDone {
				finished++
				continue
			}
			sink.Update(n)
		case <-ctx.Done():
			return
		}
	}
}
