// Package errorchain normalizes the cause chain of a reported error into an
// ordered list of Sentry exception records.
//
// Causes are linked through a configurable property ("cause" by default)
// and may come from different runtimes. Each cause is classified once by
// shape:
//
//   - stackElements: a managed-runtime exception, one java frame per element
//   - stackSymbols: a symbolicated native exception, parsed positionally
//   - stackReturnAddresses: an unsymbolicated native exception
//   - otherwise: a script error whose stack text goes through a Parser
//
// The walk is bounded by a limit that counts the already captured top-level
// exception, stops at the first cause that is not error-like, and stops when
// it meets a cause it has already visited. It never fails; bad input ends the
// walk early.
//
// Error-like values are Object and plain maps with error properties, Go
// errors (whose cause is errors.Unwrap), and goja Error objects or
// exceptions.
package errorchain
