package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// AppState is the foreground state reported by a lifecycle source.
type AppState string

const (
	StateActive     AppState = "active"
	StateBackground AppState = "background"
	StateInactive   AppState = "inactive"
)

// ChangeEvent is the only event lifecycle sources publish.
const ChangeEvent = "change"

// ErrUnsupportedEvent is returned when subscribing to an unknown event.
var ErrUnsupportedEvent = errors.New("lifecycle: unsupported event")

// ParseState normalizes a state string. Unknown values are returned as-is
// and ignored by the reconciler.
func ParseState(s string) AppState {
	return AppState(strings.ToLower(strings.TrimSpace(s)))
}

// Handler receives state changes.
type Handler func(state AppState)

// Source publishes foreground/background transitions. Implementations
// deliver events serially; a handler is never invoked concurrently with
// itself.
type Source interface {
	// Available reports whether the source can deliver events at all.
	Available() bool
	// AddEventListener subscribes h to event.
	AddEventListener(event string, h Handler) error
}

// listeners is the subscription list shared by the sources in this package.
type listeners struct {
	mu       sync.RWMutex
	handlers []Handler

	// deliver serializes dispatch across goroutines.
	deliver sync.Mutex
}

func (l *listeners) add(event string, h Handler) error {
	if event != ChangeEvent {
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, event)
	}
	if h == nil {
		return errors.New("lifecycle: nil handler")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
	return nil
}

func (l *listeners) dispatch(state AppState) {
	l.mu.RLock()
	handlers := make([]Handler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.RUnlock()

	l.deliver.Lock()
	defer l.deliver.Unlock()
	for _, h := range handlers {
		h(state)
	}
}

// Emitter is an in-process Source driven by Emit.
type Emitter struct {
	listeners
}

// NewEmitter creates an Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Available implements Source.
func (e *Emitter) Available() bool { return true }

// AddEventListener implements Source.
func (e *Emitter) AddEventListener(event string, h Handler) error {
	return e.add(event, h)
}

// Emit delivers state to every listener before returning.
func (e *Emitter) Emit(state AppState) {
	e.dispatch(state)
}

var (
	defaultSource     *Emitter
	defaultSourceOnce sync.Once
)

// DefaultSource returns the process-wide emitter host shells report to.
func DefaultSource() *Emitter {
	defaultSourceOnce.Do(func() {
		defaultSource = NewEmitter()
	})
	return defaultSource
}

type unavailable struct{}

func (unavailable) Available() bool { return false }

func (unavailable) AddEventListener(string, Handler) error {
	return errors.New("lifecycle: source unavailable")
}

// Unavailable returns a Source that never delivers, for hosts without
// lifecycle reporting.
func Unavailable() Source {
	return unavailable{}
}
