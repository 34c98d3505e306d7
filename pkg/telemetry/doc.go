// Package telemetry groups the observability stack of the beacon client.
//
// # Components
//
//   - logging: structured slog logging with PII redaction
//   - metrics: Prometheus collectors for chain normalization, lifecycle
//     reconciliation, transactions and scripts
//   - tracing: OpenTelemetry export of transactions and error events
//   - health: liveness and readiness probes for `beacon run`
//
// Each component is configured from config.TelemetryConfig and wired
// together by the client package.
package telemetry
