// Package metrics provides Prometheus metrics for the Beacon client.
//
// A Collector registers four subsystems on a private registry:
//
//   - Chain: events normalized or skipped, chain lengths, record kinds
//   - Lifecycle: transitions, background intervals, attached and pruned spans
//   - Transactions: finished transactions, durations, span counts
//   - Scripts: script runs and durations
//
// Every recorder method is safe on a nil receiver and does nothing when
// metrics are disabled, so components can take an optional recorder.
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	walker := errorchain.New(errorchain.Options{Metrics: collector.Chain()})
//	http.Handle("/metrics", collector.Handler())
package metrics
