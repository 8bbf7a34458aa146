package runner

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned before any worker starts when the run
// cannot be executed as configured.
var ErrInvalidSettings = errors.New("invalid benchmark settings")

// TransportError reports a request that failed to complete. It is fatal to
// the worker that issued it and to the whole run.
type TransportError struct {
	Connection int
	Request    int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("connection %d: request %d failed: %v", e.Connection, e.Request, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TaskFailure reports a worker that could not run at all, either because its
// requester could not be built or because it panicked.
type TaskFailure struct {
	Connection int
	Err        error
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("connection %d: benchmark task failed: %v", e.Connection, e.Err)
}

func (e *TaskFailure) Unwrap() error { return e.Err }
