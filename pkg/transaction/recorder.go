package transaction

import "sync"

// DefaultMaxSpans caps the child spans of one transaction.
const DefaultMaxSpans = 1000

// SpanRecorder stores the child spans of a transaction.
type SpanRecorder interface {
	// Record appends a span, returning false when it was dropped.
	Record(s *Span) bool
	// Len returns the number of recorded spans.
	Len() int
}

// Recorder is the standard bounded SpanRecorder.
type Recorder struct {
	mu       sync.Mutex
	maxSpans int
	spans    []*Span
	dropped  int
}

// NewRecorder creates a recorder holding at most maxSpans spans.
func NewRecorder(maxSpans int) *Recorder {
	if maxSpans <= 0 {
		maxSpans = DefaultMaxSpans
	}
	return &Recorder{maxSpans: maxSpans}
}

// Record implements SpanRecorder.
func (r *Recorder) Record(s *Span) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.spans) >= r.maxSpans {
		r.dropped++
		return false
	}
	r.spans = append(r.spans, s)
	return true
}

// Len implements SpanRecorder.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}

// Spans returns a snapshot of the recorded spans in insertion order.
func (r *Recorder) Spans() []*Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Span, len(r.spans))
	copy(out, r.spans)
	return out
}

// Remove deletes the span at index i, keeping the order of the rest.
func (r *Recorder) Remove(i int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.spans) {
		return false
	}
	r.spans = append(r.spans[:i], r.spans[i+1:]...)
	return true
}

// Dropped returns how many spans were rejected because the recorder was full.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
