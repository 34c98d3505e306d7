package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on exported spans.
const (
	AttrSentryOp         = attribute.Key("sentry.op")
	AttrSentrySpanID     = attribute.Key("sentry.span_id")
	AttrSentryEventID    = attribute.Key("sentry.event_id")
	AttrSpanDescription  = attribute.Key("sentry.description")
	AttrSpanUnfinished   = attribute.Key("beacon.span.unfinished")
	AttrChainLength      = attribute.Key("beacon.exception.chain_length")
	exceptionSpanName    = "exception"
	transactionEventType = "transaction"
)

// Exporter re-emits Sentry events as OpenTelemetry spans. Transactions
// become a span tree with their recorded timestamps; error events become a
// single span carrying one exception event per chain record.
//
// Exporter satisfies transaction.Sink.
type Exporter struct {
	tracer *Tracer
	logger *slog.Logger
}

// NewExporter creates an exporter writing to tracer.
func NewExporter(tracer *Tracer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{tracer: tracer, logger: logger}
}

// CaptureEvent exports event. It never returns an event ID since spans are
// not addressable as Sentry events.
func (e *Exporter) CaptureEvent(event *sentry.Event) *sentry.EventID {
	if e == nil || e.tracer == nil || !e.tracer.Enabled() || event == nil {
		return nil
	}

	ctx := context.Background()
	traceCtx := event.Contexts["trace"]
	if id, err := trace.TraceIDFromHex(contextString(traceCtx, "trace_id")); err == nil {
		ctx = withTraceID(ctx, id)
	}

	if event.Type == transactionEventType {
		e.exportTransaction(ctx, event)
	} else {
		e.exportError(ctx, event)
	}
	return nil
}

func (e *Exporter) exportTransaction(ctx context.Context, event *sentry.Event) {
	end := event.Timestamp
	if end.IsZero() {
		end = time.Now()
	}

	attrs := []attribute.KeyValue{
		AttrSentryOp.String(contextString(event.Contexts["trace"], "op")),
		AttrSentrySpanID.String(contextString(event.Contexts["trace"], "span_id")),
	}
	ctx, root := e.tracer.Start(ctx, event.Transaction,
		trace.WithTimestamp(event.StartTime),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)

	for _, s := range event.Spans {
		_, child := e.tracer.Start(ctx, s.Op,
			trace.WithTimestamp(s.StartTime),
			trace.WithAttributes(
				AttrSentryOp.String(s.Op),
				AttrSentrySpanID.String(s.SpanID.String()),
				AttrSpanDescription.String(s.Description),
			),
		)
		spanEnd := s.EndTime
		if spanEnd.IsZero() {
			spanEnd = end
			child.SetAttributes(AttrSpanUnfinished.Bool(true))
		}
		child.End(trace.WithTimestamp(spanEnd))
	}

	root.End(trace.WithTimestamp(end))

	e.logger.Debug("Exported transaction",
		"transaction", event.Transaction,
		"trace_id", root.SpanContext().TraceID().String(),
		"spans", len(event.Spans))
}

func (e *Exporter) exportError(ctx context.Context, event *sentry.Event) {
	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	_, span := e.tracer.Start(ctx, exceptionSpanName,
		trace.WithTimestamp(at),
		trace.WithAttributes(
			AttrSentryEventID.String(string(event.EventID)),
			AttrChainLength.Int(len(event.Exception)),
		),
	)

	for _, exc := range event.Exception {
		attrs := []attribute.KeyValue{
			semconv.ExceptionTypeKey.String(exc.Type),
			semconv.ExceptionMessageKey.String(exc.Value),
		}
		if exc.Stacktrace != nil && len(exc.Stacktrace.Frames) > 0 {
			attrs = append(attrs, semconv.ExceptionStacktraceKey.String(formatFrames(exc.Stacktrace.Frames)))
		}
		span.AddEvent(semconv.ExceptionEventName, trace.WithTimestamp(at), trace.WithAttributes(attrs...))
	}

	if n := len(event.Exception); n > 0 {
		last := event.Exception[n-1]
		span.SetStatus(codes.Error, fmt.Sprintf("%s: %s", last.Type, last.Value))
	}
	span.End(trace.WithTimestamp(at))
}

// formatFrames renders frames innermost first, one per line.
func formatFrames(frames []sentry.Frame) string {
	var sb strings.Builder
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fn := f.Function
		if fn == "" {
			fn = "?"
		}
		loc := f.Filename
		if loc == "" {
			loc = f.Module
		}
		if loc == "" {
			loc = f.Package
		}
		switch {
		case f.InstructionAddr != "":
			fmt.Fprintf(&sb, "  at %s (%s %s)\n", fn, loc, f.InstructionAddr)
		case f.Lineno > 0:
			fmt.Fprintf(&sb, "  at %s (%s:%d)\n", fn, loc, f.Lineno)
		default:
			fmt.Fprintf(&sb, "  at %s (%s)\n", fn, loc)
		}
	}
	return sb.String()
}

func contextString(c sentry.Context, key string) string {
	if c == nil {
		return ""
	}
	s, _ := c[key].(string)
	return s
}
