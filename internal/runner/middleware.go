package runner

import (
	"context"
	"fmt"
	"net/url"
)

// StatusError describes a completed request that came back with a failing
// status. It is only handed to FailureLogger; the runner never treats it as
// an error.
type StatusError struct {
	StatusCode int
	Target     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.Target)
}

// FailureLogger logs failed requests.
type FailureLogger interface {
	LogFailure(err error)
}

// loggingRequester wraps a Requester with failure logging.
type loggingRequester struct {
	inner  Requester
	logger FailureLogger
}

// WithLogging wraps a Requester to log transport errors and statuses >= 400.
func WithLogging(req Requester, logger FailureLogger) Requester {
	if logger == nil {
		return req
	}
	return &loggingRequester{
		inner:  req,
		logger: logger,
	}
}

func (l *loggingRequester) Get(ctx context.Context, target *url.URL) (int, error) {
	status, err := l.inner.Get(ctx, target)
	switch {
	case err != nil:
		l.logger.LogFailure(err)
	case status >= 400:
		l.logger.LogFailure(&StatusError{StatusCode: status, Target: target.String()})
	}
	return status, err
}
