// Package runner provides the benchmark execution engine for loadcli.
//
// A run opens a fixed number of logical connections. Each connection is a
// worker goroutine that issues its share of the total requests one after
// another and keeps every outcome locally:
//
//	per-connection requests = TotalRequests / Connections
//
// The division truncates. When TotalRequests is not a multiple of
// Connections the remainder is never sent; [Settings.Dropped] reports how
// many requests that is so callers can warn about it.
//
// # Basic Usage
//
//	settings := runner.Settings{
//		Connections:   8,
//		TotalRequests: 1000,
//		Target:        target,
//	}
//	result, err := runner.Run(ctx, settings, runner.Options{
//		Factory:  func(id int) (runner.Requester, error) { return client, nil },
//		Progress: bar,
//	})
//
// # Requester Interface
//
// The [Requester] interface defines what a worker executes:
//
//	type Requester interface {
//		Get(ctx context.Context, target *url.URL) (int, error)
//	}
//
// Every worker receives its own instance from the [RequesterFactory].
//
// # Progress
//
// Workers report completions over a single buffered channel. A positive value
// is a batch of completed requests; zero means the worker finished its loop.
// The coordinating goroutine is the only reader and the only caller of
// [Progress], so progress sinks never see concurrent calls.
//
// # Error Handling
//
// There is no local recovery. The first [TransportError] or [TaskFailure]
// cancels the remaining workers and [Run] returns it without a result. Bad
// settings are rejected with [ErrInvalidSettings] before any worker starts.
package runner
