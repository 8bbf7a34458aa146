package runner

import (
	"context"
	"io"
	"log/slog"
	"net/url"
)

// DefaultBatchSize is the number of completed requests a worker accumulates
// before reporting them on the progress channel.
const DefaultBatchSize = 10

// Requester abstracts executing a single GET against the target.
// Implementations return the HTTP status code, or an error when the request
// could not complete at all (connection refused, timeout, protocol error).
type Requester interface {
	Get(ctx context.Context, target *url.URL) (int, error)
}

// RequesterFunc adapts a plain function to Requester.
type RequesterFunc func(ctx context.Context, target *url.URL) (int, error)

func (f RequesterFunc) Get(ctx context.Context, target *url.URL) (int, error) {
	return f(ctx, target)
}

// RequesterFactory builds the Requester owned by the worker with the given id.
type RequesterFactory func(id int) (Requester, error)

// Progress receives live completion counts. Only the coordinating goroutine
// calls it, so implementations need no locking against the runner itself.
type Progress interface {
	Update(n uint64)
	Finish()
}

// NopProgress discards progress notifications.
type NopProgress struct{}

func (NopProgress) Update(uint64) {}
func (NopProgress) Finish()       {}

// Options configure a benchmark run.
type Options struct {
	BatchSize int              // completions per progress message (default DefaultBatchSize)
	Factory   RequesterFactory // per-worker requester constructor (required)
	Progress  Progress         // optional live progress sink
	Logger    *slog.Logger     // optional debug logging
}

func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Progress == nil {
		o.Progress = NopProgress{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
