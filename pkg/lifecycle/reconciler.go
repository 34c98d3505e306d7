package lifecycle

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"mercator-hq/beacon/pkg/telemetry/metrics"
	"mercator-hq/beacon/pkg/transaction"
)

const (
	// BackgroundOp is the op of spans covering time spent in the background.
	BackgroundOp = "app.background"

	// BackgroundDescription describes background spans.
	BackgroundDescription = "Application in background"

	// PatchFlag marks transactions that already carry the pruning hook.
	PatchFlag transaction.Flag = "hasBackgroundSpanPatch"
)

// Options configures a Reconciler.
type Options struct {
	Clock   clockwork.Clock
	Current transaction.Accessor
	Logger  *slog.Logger
	Metrics *metrics.LifecycleMetrics
}

// Reconciler turns background periods into spans on the current
// transaction, and keeps a trailing background span out of a finished
// transaction. One instance is meant to live for the whole process.
type Reconciler struct {
	clock   clockwork.Clock
	current transaction.Accessor
	logger  *slog.Logger
	metrics *metrics.LifecycleMetrics

	mu sync.Mutex
	// backgroundStart is set only while the application is in the background.
	backgroundStart time.Time
}

// NewReconciler creates a Reconciler. It does nothing until Setup.
func NewReconciler(opts Options) *Reconciler {
	r := &Reconciler{
		clock:   opts.Clock,
		current: opts.Current,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.current == nil {
		r.current = func() *transaction.Transaction { return nil }
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Setup subscribes to src's change events. An unavailable source leaves
// the reconciler inert; Setup reports whether it subscribed.
func (r *Reconciler) Setup(src Source) bool {
	if src == nil || !src.Available() {
		r.logger.Warn("Lifecycle source is not available, background spans are disabled")
		r.metrics.SetSourceAvailable(false)
		return false
	}

	if err := src.AddEventListener(ChangeEvent, r.Handle); err != nil {
		r.logger.Warn("Lifecycle source does not accept listeners, background spans are disabled", "error", err)
		r.metrics.SetSourceAvailable(false)
		return false
	}

	r.metrics.SetSourceAvailable(true)
	return true
}

// BackgroundStart returns the start of the open background interval.
func (r *Reconciler) BackgroundStart() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backgroundStart, !r.backgroundStart.IsZero()
}

// Handle applies one state change.
func (r *Reconciler) Handle(state AppState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case state == StateActive && !r.backgroundStart.IsZero():
		r.closeBackground(r.backgroundStart, r.clock.Now())
		r.backgroundStart = time.Time{}
		r.metrics.RecordTransition(string(state), "applied")

	case state == StateBackground && r.backgroundStart.IsZero():
		r.backgroundStart = r.clock.Now()
		r.metrics.RecordTransition(string(state), "applied")

	default:
		r.metrics.RecordTransition(string(state), "ignored")
	}
}

func (r *Reconciler) closeBackground(start, end time.Time) {
	r.metrics.RecordBackgroundInterval(end.Sub(start))

	tx := r.current()
	if tx == nil {
		r.logger.Debug("No transaction in scope, background interval dropped",
			"duration_ms", end.Sub(start).Milliseconds())
		return
	}

	span := tx.StartChild(BackgroundOp, BackgroundDescription, transaction.WithStartTime(start))
	span.Finish(end)
	r.metrics.RecordBackgroundSpan()

	if tx.Mark(PatchFlag) {
		tx.OnFinish(r.pruneTrailingBackgroundSpan)
	}
}

// pruneTrailingBackgroundSpan drops the trailing span of tx when it is a
// background span, so idle time never stretches a finished transaction.
func (r *Reconciler) pruneTrailingBackgroundSpan(tx *transaction.Transaction) {
	rec, ok := tx.Recorder().(*transaction.Recorder)
	if !ok || rec == nil {
		r.logger.Debug("Unexpected span recorder, trailing span left in place", "transaction", tx.Name)
		return
	}

	spans := rec.Spans()
	if i := trailingSpan(spans); i >= 0 && spans[i].Op == BackgroundOp {
		rec.Remove(i)
		r.metrics.RecordPruned()
		r.logger.Debug("Removed trailing background span", "transaction", tx.Name)
	}

	tx.ClearMark(PatchFlag)
}

// trailingSpan scans spans from the end and returns the index of the span
// that ends last. The last entry is the starting candidate; an earlier span
// replaces it only if it has ended and the candidate has not, or it ends
// strictly later. Returns -1 for an empty list.
func trailingSpan(spans []*transaction.Span) int {
	idx := -1
	var candEnd time.Time
	var candEnded bool

	for i := len(spans) - 1; i >= 0; i-- {
		end, ended := spans[i].EndTime()
		if idx == -1 {
			idx, candEnd, candEnded = i, end, ended
			continue
		}
		if ended && (!candEnded || end.After(candEnd)) {
			idx, candEnd, candEnded = i, end, ended
		}
	}
	return idx
}
