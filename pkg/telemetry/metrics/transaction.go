package metrics

import (
	"time"

	"mercator-hq/beacon/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// TransactionMetrics tracks finished transactions.
type TransactionMetrics struct {
	enabled bool

	finishedTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	spans         prometheus.Histogram
	droppedSpans  prometheus.Counter
}

// NewTransactionMetrics creates and registers transaction metrics with the provided registry.
func NewTransactionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TransactionMetrics {
	tm := &TransactionMetrics{
		enabled: cfg.Enabled,

		finishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "transactions_finished_total",
				Help:      "Transactions finished, by op",
			},
			[]string{"op"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "transaction_duration_seconds",
				Help:      "Duration of finished transactions",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"op"},
		),

		spans: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "transaction_spans",
				Help:      "Child spans per finished transaction",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
			},
		),

		droppedSpans: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "transaction_spans_dropped_total",
				Help:      "Child spans dropped because the recorder was full",
			},
		),
	}

	registry.MustRegister(tm.finishedTotal, tm.duration, tm.spans, tm.droppedSpans)

	return tm
}

// RecordFinished records a finished transaction.
func (tm *TransactionMetrics) RecordFinished(op string, d time.Duration, spans int) {
	if tm == nil || !tm.enabled {
		return
	}
	tm.finishedTotal.WithLabelValues(op).Inc()
	tm.duration.WithLabelValues(op).Observe(d.Seconds())
	tm.spans.Observe(float64(spans))
}

// RecordDroppedSpan records a span rejected by a full recorder.
func (tm *TransactionMetrics) RecordDroppedSpan() {
	if tm == nil || !tm.enabled {
		return
	}
	tm.droppedSpans.Inc()
}
