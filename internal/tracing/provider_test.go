package tracing

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/loadcli/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestResolveAppliesEnvironmentFallbacks(t *testing.T) {
	t.Setenv(envEndpoint, "collector:4317")
	t.Setenv(envServiceName, "from-env")

	got := resolve(config.TracingConfig{Protocol: "HTTP", SampleRate: 0.5})
	want := exportTarget{endpoint: "collector:4317", protocol: "http", service: "from-env", rate: 0.5}
	if got != want {
		t.Errorf("resolve() = %+v, want %+v", got, want)
	}

	got = resolve(config.TracingConfig{Endpoint: " otel:4318 ", ServiceName: "bench"})
	if got.endpoint != "otel:4318" || got.service != "bench" || got.protocol != "grpc" {
		t.Errorf("explicit settings should win over the environment, got %+v", got)
	}
}

func TestResolveDefaultServiceName(t *testing.T) {
	t.Setenv(envServiceName, "")
	if got := resolve(config.TracingConfig{}).service; got != defaultServiceName {
		t.Errorf("service = %q, want %q", got, defaultServiceName)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "AlwaysOffSampler"},
		{1, "AlwaysOnSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%g) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestInitModes(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.TracingConfig
		wantPropagate bool
		wantExporting bool
	}{
		{
			name: "off",
			cfg:  config.TracingConfig{},
		},
		{
			name:          "propagate only",
			cfg:           config.TracingConfig{Propagate: boolPtr(true)},
			wantPropagate: true,
		},
		{
			name:          "export over grpc",
			cfg:           config.TracingConfig{Endpoint: "localhost:4317", Insecure: true, SampleRate: 1},
			wantPropagate: true,
			wantExporting: true,
		},
		{
			name:          "export over http",
			cfg:           config.TracingConfig{Endpoint: "localhost:4318", Protocol: "http", Insecure: true, SampleRate: 1},
			wantPropagate: true,
			wantExporting: true,
		},
		{
			name:          "export without propagation",
			cfg:           config.TracingConfig{Endpoint: "localhost:4317", Insecure: true, Propagate: boolPtr(false)},
			wantExporting: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envEndpoint, "")
			p, err := Init(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			t.Cleanup(func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = p.Shutdown(ctx)
			})

			if got := p.ShouldPropagate(); got != tt.wantPropagate {
				t.Errorf("ShouldPropagate() = %v, want %v", got, tt.wantPropagate)
			}
			if got := p.Exporting(); got != tt.wantExporting {
				t.Errorf("Exporting() = %v, want %v", got, tt.wantExporting)
			}
			if p.Tracer() == nil {
				t.Error("Tracer() returned nil")
			}
		})
	}
}

func TestInitRejectsBadExportSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TracingConfig
	}{
		{"unknown protocol", config.TracingConfig{Endpoint: "localhost:4317", Protocol: "thrift"}},
		{"negative sample rate", config.TracingConfig{Endpoint: "localhost:4317", SampleRate: -0.1}},
		{"sample rate above one", config.TracingConfig{Endpoint: "localhost:4317", SampleRate: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Init(context.Background(), tt.cfg); err == nil {
				t.Fatal("Init() should fail")
			}
		})
	}
}

// A propagate-only run exports nothing but still forwards the caller's
// trace to the target.
func TestPropagateOnlyForwardsCallerTrace(t *testing.T) {
	t.Setenv(envEndpoint, "")
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())

	p, err := Init(context.Background(), config.TracingConfig{Propagate: boolPtr(true)})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	parent := trace.ContextWithRemoteSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))

	ctx, span := p.Tracer().Start(parent, "GET /")
	defer span.End()
	if span.IsRecording() {
		t.Error("propagate-only spans must not record")
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if got, want := carrier.Get("traceparent"), "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"; got != want {
		t.Errorf("traceparent = %q, want %q", got, want)
	}
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	if p.ShouldPropagate() || p.Exporting() {
		t.Error("nil provider should neither propagate nor export")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "x")
	span.End()
}
