// Package script runs user scripts on an embedded goja runtime and reports
// the values they throw.
//
// Each run gets a fresh VM with a console bound to the logger, a bounded
// call stack, and an interrupt tied to the run's timeout and context.
// Thrown values are handed to a Reporter, which captures them as
// exceptions so their cause chains are normalized like any other error.
package script
