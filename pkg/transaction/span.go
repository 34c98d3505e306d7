package transaction

import (
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// Span is a timed child operation of a transaction. A zero End means the
// span is still open.
type Span struct {
	TraceID      sentry.TraceID
	SpanID       sentry.SpanID
	ParentSpanID sentry.SpanID

	Op          string
	Description string
	Start       time.Time
	End         time.Time
	Data        map[string]any

	mu sync.Mutex
}

// SpanOption configures a child span.
type SpanOption func(*Span)

// WithStartTime overrides the span start, which defaults to now.
func WithStartTime(t time.Time) SpanOption {
	return func(s *Span) { s.Start = t }
}

// WithData attaches a data entry to the span.
func WithData(key string, value any) SpanOption {
	return func(s *Span) {
		if s.Data == nil {
			s.Data = make(map[string]any)
		}
		s.Data[key] = value
	}
}

// Finish closes the span at end. Finishing an already closed span is a no-op.
func (s *Span) Finish(end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.End.IsZero() {
		s.End = end
	}
}

// Ended reports whether the span has an end timestamp.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.End.IsZero()
}

// EndTime returns the end timestamp and whether it is set.
func (s *Span) EndTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.End, !s.End.IsZero()
}

func (s *Span) toSentry() *sentry.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &sentry.Span{
		TraceID:      s.TraceID,
		SpanID:       s.SpanID,
		ParentSpanID: s.ParentSpanID,
		Op:           s.Op,
		Description:  s.Description,
		StartTime:    s.Start,
		EndTime:      s.End,
		Data:         s.Data,
	}
}

func newTraceID() sentry.TraceID {
	return sentry.TraceID(uuid.New())
}

func newSpanID() sentry.SpanID {
	var id sentry.SpanID
	u := uuid.New()
	copy(id[:], u[:8])
	return id
}
