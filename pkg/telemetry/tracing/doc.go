// Package tracing exports Beacon's transactions and error events to an
// OpenTelemetry collector.
//
// New builds an SDK tracer provider with an OTLP gRPC exporter and one of
// three samplers (always, never, ratio), each wrapped in ParentBased. When
// tracing is disabled a noop tracer is used.
//
// Exporter implements transaction.Sink. A finished transaction becomes a
// root span with one child span per recorded span, all carrying their
// original timestamps and the trace ID reported to Sentry. An error event
// becomes an "exception" span with one semconv exception event per record
// of its normalized chain.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	tx := transaction.New("checkout", "ui.action",
//	    transaction.WithSinks(hub, tracing.NewExporter(tracer, logger)))
package tracing
