package errorchain

import (
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"mercator-hq/beacon/pkg/stacktrace"
	"mercator-hq/beacon/pkg/telemetry/metrics"
)

// Defaults for Options.
const (
	DefaultKey   = "cause"
	DefaultLimit = 5
)

// Options configures a Walker.
type Options struct {
	// Key is the property linking an error to its cause.
	Key string

	// Limit bounds the normalized chain, counting the captured top-level
	// exception: at most Limit-1 cause records are added.
	Limit int

	// InAppPackage marks managed-runtime frames whose class starts with it.
	InAppPackage string

	// Parser extracts frames from script stack text.
	Parser stacktrace.Parser

	Logger  *slog.Logger
	Metrics *metrics.ChainMetrics
}

// Walker follows cause chains across error representations and turns them
// into exception records.
type Walker struct {
	key          string
	limit        int
	inAppPackage string
	parser       stacktrace.Parser
	logger       *slog.Logger
	metrics      *metrics.ChainMetrics
}

// New creates a Walker, filling unset options with defaults.
func New(opts Options) *Walker {
	w := &Walker{
		key:          opts.Key,
		limit:        opts.Limit,
		inAppPackage: opts.InAppPackage,
		parser:       opts.Parser,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
	if w.key == "" {
		w.key = DefaultKey
	}
	if w.limit <= 0 {
		w.limit = DefaultLimit
	}
	if w.parser == nil {
		w.parser = stacktrace.Parse
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Walk returns the cause records of err, oldest cause first. err itself is
// not included.
func (w *Walker) Walk(err any) []sentry.Exception {
	props, ok := propertiesOf(err, w.key)
	if !ok {
		return nil
	}
	seen := make(map[uintptr]struct{})
	if id, ok := props.identity(); ok {
		seen[id] = struct{}{}
	}
	return w.walk(props, nil, seen)
}

func (w *Walker) walk(props properties, acc []sentry.Exception, seen map[uintptr]struct{}) []sentry.Exception {
	raw, _ := props.get(w.key)
	cause, ok := propertiesOf(raw, w.key)
	if !ok || len(acc)+1 >= w.limit {
		return acc
	}
	if id, ok := cause.identity(); ok {
		if _, dup := seen[id]; dup {
			w.logger.Debug("cause chain is cyclic, stopping walk", "records", len(acc))
			return acc
		}
		seen[id] = struct{}{}
	}

	kind, record, ok := w.convert(cause)
	if !ok {
		return acc
	}
	w.metrics.RecordRecord(kind.String(), record.Type)

	return w.walk(cause, append([]sentry.Exception{record}, acc...), seen)
}

// convert classifies one cause and builds its record. A cause that panics
// while being read (a broken Error method, a hostile script getter) ends
// the walk with the records gathered so far.
func (w *Walker) convert(cause properties) (kind Kind, record sentry.Exception, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Warn("cause could not be converted, stopping walk", "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	c := classify(cause)
	return c.Kind, w.record(c), true
}

// record builds the exception record for one classified cause.
func (w *Walker) record(c Classified) sentry.Exception {
	if c.Kind == KindScript {
		return exceptionFromProps(w.parser, c.props)
	}

	var frames []sentry.Frame
	switch c.Kind {
	case KindManagedRuntime:
		frames = managedRuntimeFrames(c.Elements, w.inAppPackage)
	case KindSymbolicatedNative:
		frames = symbolFrames(c.Symbols)
	case KindRawAddressNative:
		frames = addressFrames(c.Addresses)
	}

	name, hasName := stringProp(c.props, PropName)
	return sentry.Exception{
		Type:       name,
		Value:      valueOrPlaceholder(extractMessage(c.props), hasName),
		Stacktrace: stacktraceOf(frames),
	}
}

// Normalize prepends the cause chain of the hinted original error to the
// event's exceptions. Events without exceptions, without a hint, or whose
// original value is not error-like are returned unchanged.
func (w *Walker) Normalize(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event == nil || len(event.Exception) == 0 {
		w.skip("no_exception")
		return event
	}
	if hint == nil {
		w.skip("no_hint")
		return event
	}

	var original any
	if hint.OriginalException != nil {
		original = hint.OriginalException
	} else {
		original = hint.RecoveredException
	}

	if _, ok := propertiesOf(original, w.key); !ok {
		w.skip("not_error")
		return event
	}

	chain := w.Walk(original)
	event.Exception = append(chain, event.Exception...)
	w.metrics.RecordNormalized(len(chain))

	if len(chain) > 0 {
		w.logger.Debug("cause chain attached", "event_id", string(event.EventID), "causes", len(chain))
	}
	return event
}

func (w *Walker) skip(reason string) {
	w.metrics.RecordSkipped(reason)
	w.logger.Debug("event left unchanged by chain normalizer", "reason", reason)
}
