package errorchain

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/getsentry/sentry-go"

	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/telemetry/metrics"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chainOf builds root -> cause1 -> ... -> causeN, returning the root.
func chainOf(n int) Object {
	root := Object{PropName: "Error", PropMessage: "root"}
	cur := root
	for i := 1; i <= n; i++ {
		next := Object{PropName: "Error", PropMessage: fmt.Sprintf("cause %d", i)}
		cur[DefaultKey] = next
		cur = next
	}
	return root
}

func TestWalk_LengthAndOrder(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		limit int
	}{
		{"shorter than limit", 2, 5},
		{"equal to limit minus one", 4, 5},
		{"longer than limit", 9, 5},
		{"limit one adds nothing", 3, 1},
		{"limit two keeps one", 3, 2},
		{"no causes", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(Options{Limit: tt.limit, Logger: quietLogger()})
			got := w.Walk(chainOf(tt.n))

			want := min(tt.n, tt.limit-1)
			if len(got) != want {
				t.Fatalf("expected %d records, got %d", want, len(got))
			}
			// Oldest (deepest) cause first: cause k is at index want-k.
			for i, rec := range got {
				wantMsg := fmt.Sprintf("cause %d", want-i)
				if rec.Value != wantMsg {
					t.Errorf("record %d: expected %q, got %q", i, wantMsg, rec.Value)
				}
			}
		})
	}
}

func TestWalk_SelfCycle(t *testing.T) {
	root := Object{PropName: "Error", PropMessage: "loop"}
	root[DefaultKey] = root

	w := New(Options{Limit: 100, Logger: quietLogger()})
	if got := w.Walk(root); len(got) != 0 {
		t.Errorf("expected no records for a self cycle, got %d", len(got))
	}
}

func TestWalk_LongCycle(t *testing.T) {
	a := Object{PropName: "A", PropMessage: "a"}
	b := Object{PropName: "B", PropMessage: "b"}
	a[DefaultKey] = b
	b[DefaultKey] = a

	w := New(Options{Limit: 100, Logger: quietLogger()})
	got := w.Walk(a)
	if len(got) != 1 || got[0].Type != "B" {
		t.Errorf("expected only B before the cycle closes, got %+v", got)
	}
}

func TestWalk_CustomKey(t *testing.T) {
	root := Object{PropName: "Error", PropMessage: "root",
		"reason": Object{PropName: "Error", PropMessage: "why"},
		"cause":  Object{PropName: "Error", PropMessage: "ignored"},
	}

	w := New(Options{Key: "reason", Logger: quietLogger()})
	got := w.Walk(root)
	if len(got) != 1 || got[0].Value != "why" {
		t.Errorf("expected the reason cause, got %+v", got)
	}
}

func TestWalk_StopsAtNonError(t *testing.T) {
	root := Object{PropName: "Error", PropMessage: "root", DefaultKey: "just a string"}

	w := New(Options{Logger: quietLogger()})
	if got := w.Walk(root); len(got) != 0 {
		t.Errorf("expected no records, got %+v", got)
	}
}

func TestWalk_ManagedRuntime(t *testing.T) {
	root := Object{PropName: "Error", PropMessage: "bridge call failed",
		DefaultKey: map[string]any{
			PropName:    "java.lang.IllegalStateException",
			PropMessage: "bad state",
			PropStackElements: []any{
				map[string]any{"className": "A", "fileName": "A.java", "methodName": "m", "lineNumber": float64(10)},
				map[string]any{"className": "com.example.B", "fileName": "B.java", "methodName": "n", "lineNumber": float64(-2)},
			},
		},
	}

	w := New(Options{InAppPackage: "com.example", Logger: quietLogger()})
	got := w.Walk(root)
	if len(got) != 1 {
		t.Fatalf("expected one record, got %d", len(got))
	}

	rec := got[0]
	if rec.Type != "java.lang.IllegalStateException" || rec.Value != "bad state" {
		t.Errorf("unexpected record header: %q %q", rec.Type, rec.Value)
	}
	if rec.Stacktrace == nil || len(rec.Stacktrace.Frames) != 2 {
		t.Fatalf("expected two frames, got %+v", rec.Stacktrace)
	}

	f := rec.Stacktrace.Frames[0]
	if f.Platform != "java" || f.Module != "A" || f.Filename != "A.java" || f.Lineno != 10 || f.Function != "m" {
		t.Errorf("unexpected first frame: %+v", f)
	}
	if f.InApp {
		t.Error("frame outside the in-app package should not be in-app")
	}

	f = rec.Stacktrace.Frames[1]
	if f.Lineno != 0 {
		t.Errorf("negative line numbers should be omitted, got %d", f.Lineno)
	}
	if !f.InApp {
		t.Error("frame inside the in-app package should be in-app")
	}
}

func TestWalk_SymbolicatedNative(t *testing.T) {
	root := Object{PropName: "Error", PropMessage: "root",
		DefaultKey: Object{
			PropName:         "NSRangeException",
			PropMessage:      "index out of bounds",
			PropStackSymbols: []string{
				"0   MyApp   0x0000000102345678 -[MyApp foo] + 40",
				"garbage without an address",
				"12  CoreFoundation                      0x00000001a1b2c3d4 __exceptionPreprocess + 220",
			},
		},
	}

	w := New(Options{Logger: quietLogger()})
	got := w.Walk(root)
	if len(got) != 1 || got[0].Stacktrace == nil {
		t.Fatalf("expected one record with frames, got %+v", got)
	}

	frames := got[0].Stacktrace.Frames
	if len(frames) != 2 {
		t.Fatalf("expected two parsed frames, got %d", len(frames))
	}
	want := []sentry.Frame{
		{Platform: "cocoa", Package: "MyApp", Function: "-[MyApp foo]", InstructionAddr: "0000000102345678"},
		{Platform: "cocoa", Package: "CoreFoundation", Function: "__exceptionPreprocess", InstructionAddr: "00000001a1b2c3d4"},
	}
	for i, w := range want {
		f := frames[i]
		if f.Platform != w.Platform || f.Package != w.Package || f.Function != w.Function || f.InstructionAddr != w.InstructionAddr {
			t.Errorf("frame %d = %+v, want %+v", i, f, w)
		}
	}
}

func TestWalk_SymbolicatedLineShapes(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   sentry.Frame
		parsed bool
	}{
		{
			name:   "empty function before offset",
			line:   "0   MyApp   0x0000000102345678 + 40",
			want:   sentry.Frame{Package: "MyApp", InstructionAddr: "0000000102345678"},
			parsed: true,
		},
		{
			name:   "line ends at address",
			line:   "0   MyApp   0x1",
			want:   sentry.Frame{Package: "MyApp", InstructionAddr: "1"},
			parsed: true,
		},
		{
			name:   "no offset suffix",
			line:   "3   libobjc.A.dylib   0x00000001a0000000 objc_exception_throw",
			want:   sentry.Frame{Package: "libobjc.A.dylib", Function: "objc_exception_throw", InstructionAddr: "00000001a0000000"},
			parsed: true,
		},
		{
			name:   "trailing blanks after address",
			line:   "0   MyApp   0xabc   ",
			want:   sentry.Frame{Package: "MyApp", InstructionAddr: "abc"},
			parsed: true,
		},
		{
			name:   "address inside the index columns",
			line:   "0 0x2a main + 1",
			want:   sentry.Frame{Function: "main", InstructionAddr: "2a"},
			parsed: true,
		},
		{
			name: "no address",
			line: "0   MyApp   main + 40",
		},
		{
			name: "empty line",
			line: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := Object{PropName: "Error", PropMessage: "root",
				DefaultKey: Object{
					PropName:         "NSException",
					PropMessage:      "boom",
					PropStackSymbols: []any{tt.line},
				},
			}

			got := New(Options{Logger: quietLogger()}).Walk(root)
			if len(got) != 1 {
				t.Fatalf("expected one record, got %d", len(got))
			}

			if !tt.parsed {
				if got[0].Stacktrace != nil {
					t.Errorf("line should be dropped, got %+v", got[0].Stacktrace.Frames)
				}
				return
			}
			if got[0].Stacktrace == nil || len(got[0].Stacktrace.Frames) != 1 {
				t.Fatalf("expected one frame, got %+v", got[0].Stacktrace)
			}
			f := got[0].Stacktrace.Frames[0]
			if f.Platform != PlatformCocoa || f.Package != tt.want.Package ||
				f.Function != tt.want.Function || f.InstructionAddr != tt.want.InstructionAddr {
				t.Errorf("frame = %+v, want package=%q function=%q addr=%q",
					f, tt.want.Package, tt.want.Function, tt.want.InstructionAddr)
			}
		})
	}
}

// brokenError panics when its message is read.
type brokenError struct{}

func (brokenError) Error() string { panic("message unavailable") }

func TestWalk_PanickingCauseEndsWalk(t *testing.T) {
	root := Object{PropName: "Error", PropMessage: "root",
		DefaultKey: Object{PropName: "Error", PropMessage: "middle",
			DefaultKey: brokenError{},
		},
	}

	got := New(Options{Logger: quietLogger()}).Walk(root)
	if len(got) != 1 || got[0].Value != "middle" {
		t.Errorf("expected the walk to stop before the broken cause, got %+v", got)
	}
}

func TestWalk_RawAddressNative(t *testing.T) {
	root := Object{PropName: "Error", PropMessage: "root",
		DefaultKey: Object{
			PropName:                 "SIGABRT",
			PropMessage:              "abort",
			PropStackReturnAddresses: []any{float64(255), float64(4294967296), "skipped"},
		},
	}

	w := New(Options{Logger: quietLogger()})
	got := w.Walk(root)
	if len(got) != 1 || got[0].Stacktrace == nil {
		t.Fatalf("expected one record with frames, got %+v", got)
	}

	frames := got[0].Stacktrace.Frames
	if len(frames) != 2 {
		t.Fatalf("expected two frames, got %d", len(frames))
	}
	if frames[0].InstructionAddr != "00000000000000ff" {
		t.Errorf("expected zero padded address, got %q", frames[0].InstructionAddr)
	}
	if frames[1].InstructionAddr != "0000000100000000" {
		t.Errorf("unexpected address %q", frames[1].InstructionAddr)
	}
	if frames[0].Platform != "cocoa" || frames[0].Function != "" {
		t.Errorf("raw address frames carry no symbol info: %+v", frames[0])
	}
}

func TestWalk_ClassificationPriority(t *testing.T) {
	cause := Object{
		PropName:                 "Mixed",
		PropStackSymbols:         []string{"0   MyApp   0x1 f + 1"},
		PropStackReturnAddresses: []any{1},
		PropStackElements:        []any{},
	}

	c, ok := Classify(cause)
	if !ok {
		t.Fatal("expected error-like value")
	}
	if c.Kind != KindManagedRuntime {
		t.Errorf("expected stack elements to win, got %v", c.Kind)
	}

	// An empty element list still selects the variant but has no frames.
	w := New(Options{Logger: quietLogger()})
	got := w.Walk(Object{PropName: "Error", DefaultKey: cause})
	if len(got) != 1 || got[0].Stacktrace != nil {
		t.Errorf("expected one record without stacktrace, got %+v", got)
	}
}

func TestWalk_ScriptCauseUsesParser(t *testing.T) {
	var gotStack string
	var gotSkip int
	parser := func(stack string, skip int) ([]sentry.Frame, error) {
		gotStack, gotSkip = stack, skip
		return []sentry.Frame{{Function: "f", Filename: "app.js", Lineno: 1}}, nil
	}

	root := Object{PropName: "Error", DefaultKey: Object{
		PropName:    "TypeError",
		PropMessage: "x is undefined",
		PropStack:   "TypeError: x is undefined\n\tat f (app.js:1:1)",
	}}

	w := New(Options{Parser: parser, Logger: quietLogger()})
	got := w.Walk(root)
	if len(got) != 1 || got[0].Stacktrace == nil || len(got[0].Stacktrace.Frames) != 1 {
		t.Fatalf("expected parsed frames, got %+v", got)
	}
	if gotStack == "" || gotSkip != 0 {
		t.Errorf("parser called with stack %q skip %d", gotStack, gotSkip)
	}
}

type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string { return e.msg }
func (e *wrappedError) Unwrap() error { return e.cause }

type nativeError struct{}

func (nativeError) Error() string { return "segfault" }
func (nativeError) Attribute(key string) (any, bool) {
	if key == PropStackReturnAddresses {
		return []uint64{16}, true
	}
	return nil, false
}

func TestWalk_GoErrors(t *testing.T) {
	base := errors.New("disk full")
	mid := fmt.Errorf("write block: %w", base)
	top := &wrappedError{msg: "save failed", cause: mid}

	w := New(Options{Logger: quietLogger()})
	got := w.Walk(top)
	if len(got) != 2 {
		t.Fatalf("expected two records, got %d", len(got))
	}
	if got[0].Value != "disk full" || got[0].Type != "errors.errorString" {
		t.Errorf("unexpected oldest record %+v", got[0])
	}
	if got[1].Value != "write block: disk full" || got[1].Type != "fmt.wrapError" {
		t.Errorf("unexpected newest record %+v", got[1])
	}

	joined := errors.Join(nil, nativeError{})
	got = w.Walk(&wrappedError{msg: "top", cause: joined})
	if len(got) != 2 {
		t.Fatalf("expected join and native records, got %+v", got)
	}
	native := got[0]
	if native.Value != "segfault" || native.Stacktrace == nil || native.Stacktrace.Frames[0].InstructionAddr != "0000000000000010" {
		t.Errorf("unexpected native record %+v", native)
	}
}

func TestNormalize(t *testing.T) {
	root := chainOf(2)
	top := sentry.Exception{Type: "Error", Value: "root"}

	tests := []struct {
		name      string
		event     *sentry.Event
		hint      *sentry.EventHint
		wantTypes []string
		wantSkip  string
	}{
		{
			name:      "prepends chain before original",
			event:     &sentry.Event{Exception: []sentry.Exception{top}},
			hint:      &sentry.EventHint{OriginalException: root},
			wantTypes: []string{"cause 2", "cause 1", "root"},
		},
		{
			name:      "recovered value is used without original",
			event:     &sentry.Event{Exception: []sentry.Exception{top}},
			hint:      &sentry.EventHint{RecoveredException: map[string]any(root)},
			wantTypes: []string{"cause 2", "cause 1", "root"},
		},
		{
			name:      "no exceptions",
			event:     &sentry.Event{Message: "hello"},
			hint:      &sentry.EventHint{OriginalException: root},
			wantTypes: nil,
			wantSkip:  "skipped_no_exception",
		},
		{
			name:      "no hint",
			event:     &sentry.Event{Exception: []sentry.Exception{top}},
			wantTypes: []string{"root"},
			wantSkip:  "skipped_no_hint",
		},
		{
			name:      "original is not error-like",
			event:     &sentry.Event{Exception: []sentry.Exception{top}},
			hint:      &sentry.EventHint{RecoveredException: "panic string"},
			wantTypes: []string{"root"},
			wantSkip:  "skipped_not_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, nil)
			w := New(Options{Logger: quietLogger(), Metrics: collector.Chain()})

			out := w.Normalize(tt.event, tt.hint)
			if out != tt.event {
				t.Fatal("Normalize must return the same event")
			}

			var values []string
			for _, e := range out.Exception {
				values = append(values, e.Value)
			}
			if fmt.Sprint(values) != fmt.Sprint(tt.wantTypes) {
				t.Errorf("exceptions = %v, want %v", values, tt.wantTypes)
			}

			if tt.wantSkip != "" {
				if got := chainEvents(t, collector, tt.wantSkip); got != 1 {
					t.Errorf("expected %s to be counted, got %v", tt.wantSkip, got)
				}
			}
		})
	}
}

func TestNormalize_NilEvent(t *testing.T) {
	w := New(Options{Logger: quietLogger()})
	if w.Normalize(nil, &sentry.EventHint{}) != nil {
		t.Error("expected nil event to pass through")
	}
}

// chainEvents reads beacon_client_chain_events_total{result} from the registry.
func chainEvents(t *testing.T, collector *metrics.Collector, result string) float64 {
	t.Helper()
	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "beacon_client_chain_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
