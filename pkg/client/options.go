package client

import (
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/beacon/pkg/lifecycle"
	"mercator-hq/beacon/pkg/stacktrace"
	"mercator-hq/beacon/pkg/telemetry/tracing"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	transport  sentry.Transport
	logger     *slog.Logger
	registry   *prometheus.Registry
	clock      clockwork.Clock
	source     lifecycle.Source
	parser     stacktrace.Parser
	tracerOpts []tracing.Option
	version    string
}

// WithTransport replaces sentry-go's HTTP transport.
func WithTransport(t sentry.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithLogger sets the logger. By default one is built from
// telemetry.logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry registers metrics on registry instead of a private one.
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithClock sets the clock used for event, transaction and lifecycle
// timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLifecycleSource overrides the source selected by lifecycle.source.
func WithLifecycleSource(src lifecycle.Source) Option {
	return func(o *options) { o.source = src }
}

// WithStackParser replaces the default script stack parser.
func WithStackParser(p stacktrace.Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithTracerOptions passes options to the tracer.
func WithTracerOptions(opts ...tracing.Option) Option {
	return func(o *options) { o.tracerOpts = append(o.tracerOpts, opts...) }
}

// WithVersion sets the version reported in traces.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}
