// Package tracing wires OpenTelemetry into the load generator. Every GET
// issued by a connection can become a client span exported over OTLP, and
// W3C trace context can be injected into the outgoing headers so the target
// service joins the same trace.
package tracing

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/torosent/loadcli/internal/config"
)

const (
	defaultServiceName = "loadcli"
	tracerName         = "github.com/torosent/loadcli/internal/tracing"

	envEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envServiceName = "OTEL_SERVICE_NAME"
)

// Provider hands out the tracer used for benchmark requests. A run is in
// one of three modes: off, propagate-only (headers but no export) and
// exporting.
type Provider struct {
	tracer    trace.Tracer
	propagate bool
	flush     func(context.Context) error
}

// exportTarget is TracingConfig with the environment fallbacks applied.
type exportTarget struct {
	endpoint string
	protocol string
	service  string
	rate     float64
	insecure bool
}

func resolve(cfg config.TracingConfig) exportTarget {
	return exportTarget{
		endpoint: cmp.Or(strings.TrimSpace(cfg.Endpoint), os.Getenv(envEndpoint)),
		protocol: cmp.Or(strings.ToLower(cfg.Protocol), "grpc"),
		service:  cmp.Or(cfg.ServiceName, os.Getenv(envServiceName), defaultServiceName),
		rate:     cfg.SampleRate,
		insecure: cfg.Insecure,
	}
}

// Init builds the provider for one run. Without an endpoint no spans leave
// the process, but the W3C propagator is still installed when propagation
// was asked for.
func Init(ctx context.Context, cfg config.TracingConfig) (*Provider, error) {
	p := &Provider{
		tracer:    noop.NewTracerProvider().Tracer(tracerName),
		propagate: cfg.ShouldPropagate(),
	}
	if p.propagate {
		installPropagator()
	}
	if !cfg.Enabled() {
		return p, nil
	}

	target := resolve(cfg)
	if target.endpoint == "" {
		return p, nil
	}
	if target.rate < 0 || target.rate > 1 {
		return nil, fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", target.rate)
	}

	exporter, err := newExporter(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(target.service)))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(target.rate))),
	)
	otel.SetTracerProvider(tp)

	p.tracer = tp.Tracer(tracerName)
	p.flush = tp.Shutdown
	return p, nil
}

// samplerFor maps the configured fraction of traced requests to a sampler.
func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

func newExporter(ctx context.Context, target exportTarget) (sdktrace.SpanExporter, error) {
	switch target.protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target.endpoint)}
		if target.insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(target.endpoint)}
		if target.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q: use \"grpc\" or \"http\"", target.protocol)
	}
}

func installPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Tracer returns the tracer for request spans. It never returns nil.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer(tracerName)
	}
	return p.tracer
}

// ShouldPropagate reports whether requests carry W3C trace headers.
func (p *Provider) ShouldPropagate() bool {
	return p != nil && p.propagate
}

// Exporting reports whether spans are sent to a collector.
func (p *Provider) Exporting() bool {
	return p != nil && p.flush != nil
}

// Shutdown flushes buffered spans. It is a no-op unless the run exports.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Exporting() {
		return nil
	}
	return p.flush(ctx)
}
