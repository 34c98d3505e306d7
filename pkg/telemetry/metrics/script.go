package metrics

import (
	"time"

	"mercator-hq/beacon/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ScriptMetrics tracks the embedded script runtime.
type ScriptMetrics struct {
	enabled bool

	runsTotal *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewScriptMetrics creates and registers script metrics with the provided registry.
func NewScriptMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ScriptMetrics {
	sm := &ScriptMetrics{
		enabled: cfg.Enabled,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "script_runs_total",
				Help:      "Script runs, by status (ok, thrown, interrupted, compile_error)",
			},
			[]string{"status"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "script_duration_seconds",
				Help:      "Script run duration",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(sm.runsTotal, sm.duration)

	return sm
}

// RecordRun records a finished script run.
func (sm *ScriptMetrics) RecordRun(status string, d time.Duration) {
	if sm == nil || !sm.enabled {
		return
	}
	sm.runsTotal.WithLabelValues(status).Inc()
	sm.duration.Observe(d.Seconds())
}
