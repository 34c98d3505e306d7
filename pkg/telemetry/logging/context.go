package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// TransactionKey is the context key for the transaction name.
	TransactionKey contextKey = "transaction"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey is the context key for span IDs.
	SpanIDKey contextKey = "span_id"

	// ScriptKey is the context key for the name of the running script.
	ScriptKey contextKey = "script"
)

// WithTransaction adds transaction identifiers to the context.
func WithTransaction(ctx context.Context, name, traceID, spanID string) context.Context {
	ctx = context.WithValue(ctx, TransactionKey, name)
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// WithScript adds the script name to the context.
func WithScript(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ScriptKey, name)
}

// contextAttrs extracts the known fields from ctx, in a fixed order.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range []contextKey{TransactionKey, TraceIDKey, SpanIDKey, ScriptKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}
