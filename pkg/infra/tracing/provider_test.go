package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func enabledOptions(exporter ExporterType) *Options {
	o := NewOptions()
	o.Enabled = true
	o.ServiceName = "test-service"
	o.ExporterType = exporter
	o.SamplerType = SamplerAlwaysOn
	return o
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions()

	if opts.Enabled {
		t.Error("Expected tracing to be disabled by default")
	}
	if opts.ServiceName != "mongo-bench" {
		t.Errorf("Expected service name to be 'mongo-bench', got %s", opts.ServiceName)
	}
	if opts.ExporterType != ExporterOTLPGRPC {
		t.Errorf("Expected exporter type to be OTLP gRPC, got %s", opts.ExporterType)
	}
	if opts.SamplerType != SamplerParentBased {
		t.Errorf("Expected sampler type to be parent-based, got %s", opts.SamplerType)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(o *Options)
		wantErrs int
	}{
		{name: "disabled tracing is valid", mutate: func(o *Options) {
			o.Enabled = false
			o.ServiceName = ""
		}},
		{name: "valid grpc", mutate: func(o *Options) {}},
		{name: "missing service name", mutate: func(o *Options) { o.ServiceName = "" }, wantErrs: 1},
		{name: "missing endpoint", mutate: func(o *Options) { o.Endpoint = "" }, wantErrs: 1},
		{name: "stdout needs no endpoint", mutate: func(o *Options) {
			o.ExporterType = ExporterStdout
			o.Endpoint = ""
		}},
		{name: "invalid exporter", mutate: func(o *Options) { o.ExporterType = "zipkin" }, wantErrs: 1},
		{name: "invalid sampler", mutate: func(o *Options) { o.SamplerType = "sometimes" }, wantErrs: 1},
		{name: "ratio out of range", mutate: func(o *Options) {
			o.SamplerType = SamplerRatio
			o.SamplerRatio = 1.5
		}, wantErrs: 1},
		{name: "bad batching", mutate: func(o *Options) {
			o.BatchTimeout = 0
			o.BatchMaxSize = 0
			o.ExportTimeout = 0
			o.MaxQueueSize = 0
		}, wantErrs: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := enabledOptions(ExporterOTLPGRPC)
			tt.mutate(o)
			if errs := o.Validate(); len(errs) != tt.wantErrs {
				t.Errorf("Validate() = %v, want %d errors", errs, tt.wantErrs)
			}
		})
	}
}

func TestOptionsComplete(t *testing.T) {
	opts := &Options{}
	if err := opts.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if opts.Headers == nil || opts.ResourceAttributes == nil {
		t.Error("Expected maps to be initialized")
	}
}

func TestOptionsAddFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	if err := fs.Parse([]string{"--tracing.enabled", "--tracing.exporter-type=stdout", "--tracing.sampler-ratio=0.25"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !opts.Enabled || opts.ExporterType != ExporterStdout || opts.SamplerRatio != 0.25 {
		t.Errorf("flags not applied: %+v", opts)
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), &Options{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if provider.Enabled() {
		t.Error("Expected provider to be disabled")
	}
	if provider.Tracer("test") == nil {
		t.Error("Expected tracer to be non-nil")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProvider_Invalid(t *testing.T) {
	opts := enabledOptions("zipkin")
	if _, err := NewProvider(context.Background(), opts); err == nil {
		t.Error("Expected error for invalid exporter")
	}
}

func TestNewProvider_Exporters(t *testing.T) {
	for _, exporter := range []ExporterType{ExporterNoop, ExporterStdout} {
		t.Run(string(exporter), func(t *testing.T) {
			prev := otel.GetTracerProvider()
			defer otel.SetTracerProvider(prev)

			provider, err := NewProvider(context.Background(), enabledOptions(exporter))
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			defer func() { _ = provider.Shutdown(context.Background()) }()

			if !provider.Enabled() {
				t.Error("Expected provider to be enabled")
			}

			_, span := provider.Tracer("test").Start(context.Background(), "test-span")
			if !span.SpanContext().IsValid() {
				t.Error("Expected a recording span")
			}
			span.End()

			if err := provider.ForceFlush(context.Background()); err != nil {
				t.Errorf("ForceFlush() error = %v", err)
			}
		})
	}
}

func TestNewSampler(t *testing.T) {
	tests := map[SamplerType]string{
		SamplerAlwaysOn:    "AlwaysOnSampler",
		SamplerAlwaysOff:   "AlwaysOffSampler",
		SamplerRatio:       "TraceIDRatioBased{0.5}",
		SamplerParentBased: "ParentBased{root:TraceIDRatioBased{0.5}",
	}
	for typ, want := range tests {
		o := NewOptions()
		o.SamplerType = typ
		o.SamplerRatio = 0.5
		got := newSampler(o).Description()
		if len(got) < len(want) || got[:len(want)] != want {
			t.Errorf("newSampler(%s) = %s, want prefix %s", typ, got, want)
		}
	}
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	if id := TraceIDFromContext(context.Background()); id != "" {
		t.Errorf("TraceIDFromContext() = %q, want empty", id)
	}

	ctx, span := StartSpan(context.Background(), "test", "mongodb.command")
	if TraceIDFromContext(ctx) == "" {
		t.Error("Expected trace ID inside span")
	}
	RecordError(ctx, nil)
	RecordError(ctx, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("Expected error status, got %v", spans[0].Status())
	}
	if len(spans[0].Events()) != 1 {
		t.Errorf("Expected 1 error event, got %d", len(spans[0].Events()))
	}
}

func BenchmarkStartSpan(b *testing.B) {
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := StartSpan(ctx, "bench", "span")
		span.End()
	}
}
