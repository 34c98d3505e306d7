// Package stacktrace parses script-engine stack text into Sentry frames.
package stacktrace
