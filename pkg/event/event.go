package event

import (
	"time"

	"github.com/getsentry/sentry-go"

	"mercator-hq/beacon/pkg/errorchain"
	"mercator-hq/beacon/pkg/stacktrace"
)

// NewError builds the error event for v together with the hint the chain
// normalizer reads. Go errors travel as the original exception, any other
// value as a recovered one.
func NewError(parser stacktrace.Parser, v any, at time.Time) (*sentry.Event, *sentry.EventHint) {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Timestamp = at
	event.Exception = []sentry.Exception{errorchain.ExceptionFromError(parser, v)}

	hint := &sentry.EventHint{}
	if err, ok := v.(error); ok {
		hint.OriginalException = err
	} else {
		hint.RecoveredException = v
	}
	return event, hint
}

// SetTrace attaches a trace context to event.
func SetTrace(event *sentry.Event, traceID, spanID, op string) {
	if event.Contexts == nil {
		event.Contexts = make(map[string]sentry.Context)
	}
	event.Contexts["trace"] = sentry.Context{
		"trace_id": traceID,
		"span_id":  spanID,
		"op":       op,
	}
}
