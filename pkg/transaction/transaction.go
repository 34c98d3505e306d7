package transaction

import (
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"

	"mercator-hq/beacon/pkg/telemetry/metrics"
)

// Sink receives finished transactions. *sentry.Hub satisfies it.
type Sink interface {
	CaptureEvent(event *sentry.Event) *sentry.EventID
}

// Flag is a one-shot marker components set on a transaction to remember
// that they already attached to it.
type Flag string

// FinishHook runs while a transaction finishes, before it is emitted.
type FinishHook func(tx *Transaction)

// Transaction is a root span owning an ordered list of child spans.
// It is safe for concurrent use.
type Transaction struct {
	Name    string
	Op      string
	TraceID sentry.TraceID
	SpanID  sentry.SpanID
	Start   time.Time

	clock    clockwork.Clock
	recorder SpanRecorder
	sinks    []Sink
	logger   *slog.Logger
	metrics  *metrics.TransactionMetrics

	mu       sync.Mutex
	end      time.Time
	hooks    []FinishHook
	marks    map[Flag]struct{}
	finished bool
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(tx *Transaction) { tx.clock = c }
}

// WithRecorder replaces the default bounded recorder.
func WithRecorder(r SpanRecorder) Option {
	return func(tx *Transaction) { tx.recorder = r }
}

// WithMaxSpans sets the capacity of the default recorder.
func WithMaxSpans(n int) Option {
	return func(tx *Transaction) { tx.recorder = NewRecorder(n) }
}

// WithSinks sets where the finished transaction is sent.
func WithSinks(sinks ...Sink) Option {
	return func(tx *Transaction) { tx.sinks = append(tx.sinks, sinks...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(tx *Transaction) { tx.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.TransactionMetrics) Option {
	return func(tx *Transaction) { tx.metrics = m }
}

// New starts a transaction.
func New(name, op string, opts ...Option) *Transaction {
	tx := &Transaction{
		Name:    name,
		Op:      op,
		TraceID: newTraceID(),
		SpanID:  newSpanID(),
		marks:   make(map[Flag]struct{}),
	}
	for _, opt := range opts {
		opt(tx)
	}
	if tx.clock == nil {
		tx.clock = clockwork.NewRealClock()
	}
	if tx.recorder == nil {
		tx.recorder = NewRecorder(DefaultMaxSpans)
	}
	if tx.logger == nil {
		tx.logger = slog.Default()
	}
	tx.Start = tx.clock.Now()
	return tx
}

// StartChild records a new open child span.
func (tx *Transaction) StartChild(op, description string, opts ...SpanOption) *Span {
	s := &Span{
		TraceID:      tx.TraceID,
		SpanID:       newSpanID(),
		ParentSpanID: tx.SpanID,
		Op:           op,
		Description:  description,
		Start:        tx.clock.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if tx.Finished() {
		tx.logger.Debug("child span started after transaction finished", "transaction", tx.Name, "op", op)
		return s
	}
	if tx.recorder == nil || !tx.recorder.Record(s) {
		tx.metrics.RecordDroppedSpan()
		tx.logger.Debug("child span dropped", "transaction", tx.Name, "op", op)
	}
	return s
}

// Recorder returns the span recorder.
func (tx *Transaction) Recorder() SpanRecorder {
	return tx.recorder
}

// Mark sets flag and reports whether it was previously unset.
func (tx *Transaction) Mark(flag Flag) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if _, ok := tx.marks[flag]; ok {
		return false
	}
	tx.marks[flag] = struct{}{}
	return true
}

// ClearMark unsets flag.
func (tx *Transaction) ClearMark(flag Flag) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	delete(tx.marks, flag)
}

// Marked reports whether flag is set.
func (tx *Transaction) Marked(flag Flag) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	_, ok := tx.marks[flag]
	return ok
}

// OnFinish registers a hook run once when the transaction finishes. Hooks
// run in registration order. Hooks registered after finish are ignored.
func (tx *Transaction) OnFinish(hook FinishHook) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.finished {
		return
	}
	tx.hooks = append(tx.hooks, hook)
}

// Finished reports whether Finish has been called.
func (tx *Transaction) Finished() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.finished
}

// EndTime returns the finish timestamp, zero while running.
func (tx *Transaction) EndTime() time.Time {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.end
}

// Finish ends the transaction now.
func (tx *Transaction) Finish() *sentry.EventID {
	return tx.FinishAt(tx.clock.Now())
}

// FinishAt runs the finish hooks, then emits the transaction to every sink.
// Only the first call has an effect. It returns the event ID of the last
// sink that accepted the event.
func (tx *Transaction) FinishAt(end time.Time) *sentry.EventID {
	tx.mu.Lock()
	if tx.finished {
		tx.mu.Unlock()
		return nil
	}
	tx.finished = true
	hooks := tx.hooks
	tx.hooks = nil
	tx.mu.Unlock()

	for _, hook := range hooks {
		hook(tx)
	}

	tx.mu.Lock()
	tx.end = end
	tx.mu.Unlock()

	event := tx.Event()
	tx.metrics.RecordFinished(tx.Op, end.Sub(tx.Start), len(event.Spans))

	var id *sentry.EventID
	for _, sink := range tx.sinks {
		if got := sink.CaptureEvent(event); got != nil {
			id = got
		}
	}
	return id
}

// Event renders the transaction as a Sentry transaction event. Spans come
// from the standard Recorder; other recorders contribute none.
func (tx *Transaction) Event() *sentry.Event {
	event := sentry.NewEvent()
	event.Type = "transaction"
	event.Transaction = tx.Name
	event.StartTime = tx.Start
	event.Timestamp = tx.EndTime()
	event.Contexts["trace"] = sentry.Context{
		"trace_id": tx.TraceID.String(),
		"span_id":  tx.SpanID.String(),
		"op":       tx.Op,
	}

	if r, ok := tx.recorder.(*Recorder); ok {
		for _, s := range r.Spans() {
			event.Spans = append(event.Spans, s.toSentry())
		}
	}
	return event
}
