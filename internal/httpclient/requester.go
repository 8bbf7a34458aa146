package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/loadcli/internal/runner"
	"github.com/torosent/loadcli/internal/tracing"
)

// maxDrainBytes bounds how much of a response body is read so the socket
// can be reused. Larger bodies close the connection instead.
const maxDrainBytes = 1024 * 1024

// Requester issues live GET requests. It implements runner.Requester.
type Requester struct {
	client  *http.Client
	builder *RequestBuilder
}

func NewRequester(client *http.Client, builder *RequestBuilder) *Requester {
	return &Requester{client: client, builder: builder}
}

// Get returns the raw status code of the response. Any status is a
// completed request; only failures to obtain a response are errors.
func (r *Requester) Get(ctx context.Context, target *url.URL) (int, error) {
	req, err := r.builder.Build(ctx, target)
	if err != nil {
		return 0, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

type tracingRequester struct {
	next       runner.Requester
	tracer     trace.Tracer
	connection int
}

// WithTracing records a client span around every Get of next. The span
// context travels in ctx so a RequestBuilder with propagation enabled can
// inject it into the outgoing headers.
func WithTracing(next runner.Requester, tracer trace.Tracer, connection int) runner.Requester {
	if tracer == nil {
		return next
	}
	return &tracingRequester{next: next, tracer: tracer, connection: connection}
}

func (t *tracingRequester) Get(ctx context.Context, target *url.URL) (int, error) {
	ctx, span := tracing.StartRequestSpan(ctx, t.tracer, http.MethodGet, target, t.connection)
	status, err := t.next.Get(ctx, target)
	tracing.EndSpan(span, status, err)
	return status, err
}

// FactoryOptions configures NewFactory.
type FactoryOptions struct {
	Timeout time.Duration
	Headers map[string]string
	// Propagate injects W3C trace context headers.
	Propagate bool
	Tracer    trace.Tracer
	// Logger receives transport failures and error statuses when set.
	Logger runner.FailureLogger
}

// NewFactory returns a runner.RequesterFactory that gives every connection
// its own client, so each logical connection owns its socket.
func NewFactory(opts FactoryOptions) (runner.RequesterFactory, error) {
	// Validate headers up front so a bad header fails before any worker starts.
	if _, err := NewRequestBuilder(opts.Headers); err != nil {
		return nil, err
	}
	return func(id int) (runner.Requester, error) {
		builder, err := NewRequestBuilder(opts.Headers)
		if err != nil {
			return nil, err
		}
		builder.WithPropagation(opts.Propagate)

		var req runner.Requester = NewRequester(NewClient(opts.Timeout, 1), builder)
		if opts.Logger != nil {
			req = runner.WithLogging(req, opts.Logger)
		}
		return WithTracing(req, opts.Tracer, id), nil
	}, nil
}
