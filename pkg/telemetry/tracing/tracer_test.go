package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"mercator-hq/beacon/pkg/config"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func enabledConfig() *config.TracingConfig {
	return &config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		SampleRatio: 1.0,
		Endpoint:    "localhost:4317",
		ServiceName: "beacon-test",
		OTLP: config.OTLPConfig{
			Insecure: true,
			Timeout:  time.Second,
		},
	}
}

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tracer, err := New(enabledConfig(), WithSpanProcessor(sr), WithServiceVersion("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, sr
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.TracingConfig
		wantErr bool
		enabled bool
	}{
		{name: "nil config", config: nil, wantErr: true},
		{name: "disabled", config: &config.TracingConfig{ServiceName: "beacon-test"}},
		{name: "otlp exporter", config: enabledConfig(), enabled: true},
		{
			name: "invalid sampler",
			config: func() *config.TracingConfig {
				c := enabledConfig()
				c.Sampler = "sometimes"
				return c
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.enabled)
			}
		})
	}
}

func TestTracer_DisabledIsNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()

	if span.SpanContext().IsValid() {
		t.Error("disabled tracer should produce invalid span contexts")
	}
	if TraceID(ctx) != "" {
		t.Error("expected empty trace ID from a noop span")
	}
	if err := tracer.ForceFlush(ctx); err != nil {
		t.Errorf("ForceFlush: %v", err)
	}
	if err := tracer.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestTracer_StartRecordsSpans(t *testing.T) {
	tracer, sr := newRecordingTracer(t)

	ctx, span := tracer.Start(context.Background(), "checkout")
	if TraceID(ctx) == "" {
		t.Error("expected trace ID in context")
	}
	SetStatus(span, errors.New("declined"))
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error || ended[0].Status().Description != "declined" {
		t.Errorf("unexpected status %+v", ended[0].Status())
	}
}

func TestSetStatus_OK(t *testing.T) {
	tracer, sr := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "ok")
	SetStatus(span, nil)
	span.End()

	if got := sr.Ended()[0].Status().Code; got != codes.Ok {
		t.Errorf("expected Ok status, got %v", got)
	}
}

func TestPropagation_RoundTrip(t *testing.T) {
	tracer, _ := newRecordingTracer(t)

	ctx, span := tracer.Start(context.Background(), "bridge.connect")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("expected traceparent header")
	}

	extracted := trace.SpanContextFromContext(Extract(context.Background(), headers))
	if extracted.TraceID() != span.SpanContext().TraceID() {
		t.Errorf("trace ID mismatch: %s vs %s", extracted.TraceID(), span.SpanContext().TraceID())
	}
	if !extracted.IsRemote() {
		t.Error("extracted span context should be remote")
	}
}

func TestIDGenerator_HonoursContextTraceID(t *testing.T) {
	want := trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	tid, sid := idGenerator{}.NewIDs(withTraceID(context.Background(), want))
	if tid != want {
		t.Errorf("expected trace ID %s, got %s", want, tid)
	}
	if !sid.IsValid() {
		t.Error("expected a valid span ID")
	}

	other, _ := idGenerator{}.NewIDs(context.Background())
	if !other.IsValid() || other == want {
		t.Errorf("expected a fresh random trace ID, got %s", other)
	}
}
