package metrics

import (
	"mercator-hq/beacon/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Maximum distinct exception types tracked before folding into "other".
const maxExceptionTypes = 200

// ChainMetrics tracks error chain normalization.
//
// Metrics:
//   - beacon_client_chain_events_total: events seen by the normalizer, by result
//   - beacon_client_chain_length: number of cause records prepended per event
//   - beacon_client_chain_records_total: cause records by source kind
//   - beacon_client_chain_exceptions_total: cause records by exception type
type ChainMetrics struct {
	enabled bool

	eventsTotal   *prometheus.CounterVec
	chainLength   prometheus.Histogram
	recordsTotal  *prometheus.CounterVec
	exceptionsTot *prometheus.CounterVec

	types *CardinalityLimiter
}

// NewChainMetrics creates and registers chain metrics with the provided registry.
func NewChainMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ChainMetrics {
	cm := &ChainMetrics{
		enabled: cfg.Enabled,

		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "chain_events_total",
				Help:      "Events seen by the error chain normalizer",
			},
			[]string{"result"},
		),

		chainLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "chain_length",
				Help:      "Number of cause records prepended to an event",
				Buckets:   []float64{0, 1, 2, 3, 4, 5, 8, 13},
			},
		),

		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "chain_records_total",
				Help:      "Cause records built, by source kind",
			},
			[]string{"kind"},
		),

		exceptionsTot: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "chain_exceptions_total",
				Help:      "Cause records built, by exception type",
			},
			[]string{"type"},
		),

		types: NewCardinalityLimiter(maxExceptionTypes),
	}

	registry.MustRegister(cm.eventsTotal, cm.chainLength, cm.recordsTotal, cm.exceptionsTot)

	return cm
}

// RecordSkipped records an event left untouched. reason is one of a small
// fixed set ("no_exception", "no_hint", "not_error").
func (cm *ChainMetrics) RecordSkipped(reason string) {
	if cm == nil || !cm.enabled {
		return
	}
	cm.eventsTotal.WithLabelValues("skipped_" + reason).Inc()
}

// RecordNormalized records an event whose exception list was rewritten with
// length cause records.
func (cm *ChainMetrics) RecordNormalized(length int) {
	if cm == nil || !cm.enabled {
		return
	}
	cm.eventsTotal.WithLabelValues("normalized").Inc()
	cm.chainLength.Observe(float64(length))
}

// RecordRecord records one cause record of the given kind and exception type.
func (cm *ChainMetrics) RecordRecord(kind, exceptionType string) {
	if cm == nil || !cm.enabled {
		return
	}
	cm.recordsTotal.WithLabelValues(kind).Inc()

	if exceptionType == "" {
		exceptionType = "unknown"
	}
	if !cm.types.Allow(exceptionType) {
		exceptionType = "other"
	}
	cm.exceptionsTot.WithLabelValues(exceptionType).Inc()
}
