package metrics

import (
	"time"

	"mercator-hq/beacon/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics tracks the foreground/background reconciler.
//
// Metrics:
//   - beacon_client_lifecycle_transitions_total: transitions by state and outcome
//   - beacon_client_lifecycle_background_seconds: length of closed background intervals
//   - beacon_client_lifecycle_background_spans_total: background spans attached
//   - beacon_client_lifecycle_pruned_spans_total: trailing background spans removed at finish
//   - beacon_client_lifecycle_source_available: 1 when the lifecycle source is subscribed
type LifecycleMetrics struct {
	enabled bool

	transitionsTotal *prometheus.CounterVec
	backgroundTime   prometheus.Histogram
	spansTotal       prometheus.Counter
	prunedTotal      prometheus.Counter
	sourceAvailable  prometheus.Gauge
}

// NewLifecycleMetrics creates and registers lifecycle metrics with the provided registry.
func NewLifecycleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LifecycleMetrics {
	lm := &LifecycleMetrics{
		enabled: cfg.Enabled,

		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lifecycle_transitions_total",
				Help:      "Lifecycle state changes received, by state and outcome",
			},
			[]string{"state", "outcome"},
		),

		backgroundTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lifecycle_background_seconds",
				Help:      "Duration of closed background intervals",
				Buckets:   []float64{0.1, 1, 5, 30, 60, 300, 1800, 3600},
			},
		),

		spansTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lifecycle_background_spans_total",
				Help:      "Background spans attached to transactions",
			},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lifecycle_pruned_spans_total",
				Help:      "Trailing background spans removed when a transaction finished",
			},
		),

		sourceAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lifecycle_source_available",
				Help:      "Whether the lifecycle event source is subscribed (1) or not (0)",
			},
		),
	}

	registry.MustRegister(lm.transitionsTotal, lm.backgroundTime, lm.spansTotal, lm.prunedTotal, lm.sourceAvailable)

	return lm
}

// RecordTransition records a state change. outcome is "applied" or "ignored".
func (lm *LifecycleMetrics) RecordTransition(state, outcome string) {
	if lm == nil || !lm.enabled {
		return
	}
	lm.transitionsTotal.WithLabelValues(state, outcome).Inc()
}

// RecordBackgroundInterval records a closed background interval.
func (lm *LifecycleMetrics) RecordBackgroundInterval(d time.Duration) {
	if lm == nil || !lm.enabled {
		return
	}
	lm.backgroundTime.Observe(d.Seconds())
}

// RecordBackgroundSpan records a background span attached to a transaction.
func (lm *LifecycleMetrics) RecordBackgroundSpan() {
	if lm == nil || !lm.enabled {
		return
	}
	lm.spansTotal.Inc()
}

// RecordPruned records a trailing background span removed at finish.
func (lm *LifecycleMetrics) RecordPruned() {
	if lm == nil || !lm.enabled {
		return
	}
	lm.prunedTotal.Inc()
}

// SetSourceAvailable updates the source availability gauge.
func (lm *LifecycleMetrics) SetSourceAvailable(available bool) {
	if lm == nil || !lm.enabled {
		return
	}
	if available {
		lm.sourceAvailable.Set(1)
	} else {
		lm.sourceAvailable.Set(0)
	}
}
