package tracing

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartRequestSpan starts a client span for one request issued by a
// connection. The span is named after the method and the target path.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, method string, target *url.URL, connection int) (context.Context, trace.Span) {
	spanName := method + " request"
	if target != nil && target.Path != "" {
		spanName = method + " " + target.Path
	}
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.Int("loadcli.connection", connection),
	)
	if target != nil {
		span.SetAttributes(
			attribute.String("url.full", target.String()),
			attribute.String("server.address", target.Hostname()),
		)
	}
	return ctx, span
}

// EndSpan finishes a span. Transport errors and status codes >= 400 mark the
// span as failed; a zero status is not recorded.
func EndSpan(span trace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= 400:
		span.SetStatus(codes.Error, http.StatusText(status))
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
