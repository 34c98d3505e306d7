package tracing

import (
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestCreateSampler(t *testing.T) {
	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}

	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
		want     sdktrace.SamplingDecision
	}{
		{name: "always", strategy: SamplerAlways, want: sdktrace.RecordAndSample},
		{name: "never", strategy: SamplerNever, want: sdktrace.Drop},
		{name: "ratio zero", strategy: SamplerRatio, ratio: 0, want: sdktrace.Drop},
		{name: "ratio one", strategy: SamplerRatio, ratio: 1, want: sdktrace.RecordAndSample},
		{name: "ratio negative", strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{name: "ratio above one", strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{name: "unknown", strategy: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			res := sampler.ShouldSample(sdktrace.SamplingParameters{TraceID: traceID, Name: "checkout"})
			if res.Decision != tt.want {
				t.Errorf("decision = %v, want %v", res.Decision, tt.want)
			}
		})
	}
}
