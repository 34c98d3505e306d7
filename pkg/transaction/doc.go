// Package transaction implements in-flight transactions with child spans.
//
// A Transaction records child spans into a SpanRecorder, carries one-shot
// marker flags, and runs registered finish hooks before it is emitted as a
// Sentry transaction event to its sinks. A Scope tracks the transaction the
// application is currently running.
package transaction
