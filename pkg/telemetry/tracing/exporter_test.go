package tracing

import (
	"strings"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/telemetry/logging"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const sentryTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"

func transactionEvent() *sentry.Event {
	event := sentry.NewEvent()
	event.Type = "transaction"
	event.Transaction = "home"
	event.StartTime = epoch
	event.Timestamp = epoch.Add(10 * time.Second)
	event.Contexts["trace"] = sentry.Context{
		"trace_id": sentryTraceID,
		"span_id":  "00f067aa0ba902b7",
		"op":       "ui.load",
	}
	event.Spans = []*sentry.Span{
		{Op: "http.client", Description: "GET /feed", StartTime: epoch.Add(time.Second), EndTime: epoch.Add(2 * time.Second)},
		{Op: "app.background", Description: "Application in background", StartTime: epoch.Add(3 * time.Second)},
	}
	return event
}

func attr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestExporter_Transaction(t *testing.T) {
	tracer, sr := newRecordingTracer(t)
	exp := NewExporter(tracer, logging.Discard())

	if id := exp.CaptureEvent(transactionEvent()); id != nil {
		t.Errorf("expected no event ID, got %v", *id)
	}

	ended := sr.Ended()
	if len(ended) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(ended))
	}

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range ended {
		byName[s.Name()] = s
	}

	root := byName["home"]
	if root == nil {
		t.Fatal("missing root span")
	}
	if root.SpanContext().TraceID().String() != sentryTraceID {
		t.Errorf("expected exported trace to reuse the Sentry trace ID, got %s", root.SpanContext().TraceID())
	}
	if !root.StartTime().Equal(epoch) || !root.EndTime().Equal(epoch.Add(10*time.Second)) {
		t.Errorf("unexpected root timing %v - %v", root.StartTime(), root.EndTime())
	}
	if v, _ := attr(root, AttrSentryOp); v.AsString() != "ui.load" {
		t.Errorf("unexpected op attribute %q", v.AsString())
	}

	child := byName["http.client"]
	if child == nil || child.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Fatal("child span should be parented to the root span")
	}
	if !child.EndTime().Equal(epoch.Add(2 * time.Second)) {
		t.Errorf("unexpected child end %v", child.EndTime())
	}

	bg := byName["app.background"]
	if bg == nil {
		t.Fatal("missing background span")
	}
	if !bg.EndTime().Equal(epoch.Add(10 * time.Second)) {
		t.Errorf("open span should end with the transaction, got %v", bg.EndTime())
	}
	if v, ok := attr(bg, AttrSpanUnfinished); !ok || !v.AsBool() {
		t.Error("open span should be flagged unfinished")
	}
}

func TestExporter_ErrorEvent(t *testing.T) {
	tracer, sr := newRecordingTracer(t)
	exp := NewExporter(tracer, logging.Discard())

	event := sentry.NewEvent()
	event.EventID = "0123456789abcdef0123456789abcdef"
	event.Timestamp = epoch
	event.Exception = []sentry.Exception{
		{Type: "IOException", Value: "disk full", Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{
			{Function: "write", Module: "com.example.Store", Lineno: 42},
		}}},
		{Type: "Error", Value: "save failed"},
	}

	exp.CaptureEvent(event)

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	span := ended[0]
	if span.Status().Code != codes.Error || span.Status().Description != "Error: save failed" {
		t.Errorf("unexpected status %+v", span.Status())
	}

	events := span.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 exception events, got %d", len(events))
	}
	first := events[0]
	if first.Name != semconv.ExceptionEventName {
		t.Errorf("unexpected event name %q", first.Name)
	}
	var typ, stack string
	for _, kv := range first.Attributes {
		switch kv.Key {
		case semconv.ExceptionTypeKey:
			typ = kv.Value.AsString()
		case semconv.ExceptionStacktraceKey:
			stack = kv.Value.AsString()
		}
	}
	if typ != "IOException" {
		t.Errorf("unexpected exception type %q", typ)
	}
	if !strings.Contains(stack, "at write (com.example.Store:42)") {
		t.Errorf("unexpected stacktrace %q", stack)
	}
}

func TestExporter_IgnoresWithoutEnabledTracer(t *testing.T) {
	var nilExporter *Exporter
	if nilExporter.CaptureEvent(transactionEvent()) != nil {
		t.Error("nil exporter should ignore events")
	}

	disabled, err := New(&config.TracingConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if NewExporter(disabled, nil).CaptureEvent(transactionEvent()) != nil {
		t.Error("disabled exporter should ignore events")
	}
}

func TestFormatFrames(t *testing.T) {
	frames := []sentry.Frame{
		{Function: "main", Filename: "app.js", Lineno: 3},
		{Package: "MyApp", Function: "-[MyApp foo]", InstructionAddr: "0x0000000102345678"},
		{},
	}
	want := "  at ? ()\n  at -[MyApp foo] (MyApp 0x0000000102345678)\n  at main (app.js:3)\n"
	if got := formatFrames(frames); got != want {
		t.Errorf("formatFrames() = %q, want %q", got, want)
	}
}
