package errorchain

import (
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
)

// recordingTransport keeps events instead of sending them.
type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions) {}
func (t *recordingTransport) Flush(time.Duration) bool      { return true }
func (t *recordingTransport) Close()                        {}
func (t *recordingTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func TestIntegration_NormalizesCapturedEvents(t *testing.T) {
	transport := &recordingTransport{}
	w := New(Options{Limit: 3, Logger: quietLogger()})

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
		Integrations: func(defaults []sentry.Integration) []sentry.Integration {
			return append(defaults, NewIntegration(w))
		},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	root := chainOf(4)
	event := &sentry.Event{
		Level:     sentry.LevelError,
		Exception: []sentry.Exception{ExceptionFromError(nil, root)},
	}
	client.CaptureEvent(event, &sentry.EventHint{OriginalException: root}, sentry.NewScope())

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.events) != 1 {
		t.Fatalf("expected one event, got %d", len(transport.events))
	}

	got := transport.events[0].Exception
	if len(got) != 3 {
		t.Fatalf("expected limit of 3 records, got %d", len(got))
	}
	want := []string{"cause 2", "cause 1", "root"}
	for i, w := range want {
		if got[i].Value != w {
			t.Errorf("record %d = %q, want %q", i, got[i].Value, w)
		}
	}
}

func TestIntegration_Name(t *testing.T) {
	if name := NewIntegration(New(Options{})).Name(); name != IntegrationName {
		t.Errorf("Name() = %q", name)
	}
}
