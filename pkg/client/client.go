package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"

	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/errorchain"
	beaconevent "mercator-hq/beacon/pkg/event"
	"mercator-hq/beacon/pkg/lifecycle"
	"mercator-hq/beacon/pkg/stacktrace"
	"mercator-hq/beacon/pkg/telemetry/logging"
	"mercator-hq/beacon/pkg/telemetry/metrics"
	"mercator-hq/beacon/pkg/telemetry/tracing"
	"mercator-hq/beacon/pkg/transaction"
)

// Client is the error-reporting client: a sentry-go client with the chain
// normalizer installed, a transaction scope, the lifecycle reconciler and
// the telemetry stack.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  clockwork.Clock
	parser stacktrace.Parser

	sentry   *sentry.Client
	hub      *sentry.Hub
	walker   *errorchain.Walker
	scope    *transaction.Scope
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	exporter *tracing.Exporter

	reconciler *lifecycle.Reconciler
	source     lifecycle.Source
	fileSource *lifecycle.FileSource
	bridge     *lifecycle.BridgeSource
}

// New builds a client from cfg. An empty DSN keeps every event local.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		cfg:    cfg,
		logger: o.logger,
		clock:  o.clock,
		parser: o.parser,
		scope:  transaction.NewScope(),
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.parser == nil {
		c.parser = stacktrace.Parse
	}
	if c.logger == nil {
		logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		c.logger = logger
	}

	c.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, o.registry)

	tracerOpts := o.tracerOpts
	if o.version != "" {
		tracerOpts = append(tracerOpts, tracing.WithServiceVersion(o.version))
	}
	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	c.tracer = tracer
	c.exporter = tracing.NewExporter(tracer, c.logger)

	c.walker = errorchain.New(errorchain.Options{
		Key:          cfg.ErrorChain.Key,
		Limit:        cfg.ErrorChain.Limit,
		InAppPackage: cfg.ErrorChain.InAppPackage,
		Parser:       c.parser,
		Logger:       c.logger,
		Metrics:      c.metrics.Chain(),
	})

	c.sentry, err = sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		Debug:            cfg.Sentry.Debug,
		Transport:        o.transport,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		// Causes come from the chain normalizer, not from sentry-go's own
		// unwrapping of Go errors.
		MaxErrorDepth: 1,
		Integrations: func(defaults []sentry.Integration) []sentry.Integration {
			return append(defaults, errorchain.NewIntegration(c.walker))
		},
	})
	if err != nil {
		_ = tracer.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}
	c.hub = sentry.NewHub(c.sentry, sentry.NewScope())

	c.reconciler = lifecycle.NewReconciler(lifecycle.Options{
		Clock:   c.clock,
		Current: c.scope.Accessor(),
		Logger:  c.logger,
		Metrics: c.metrics.Lifecycle(),
	})
	if err := c.setupLifecycle(o.source); err != nil {
		_ = tracer.Shutdown(context.Background())
		return nil, err
	}

	c.logger.Debug("Client initialized",
		"dsn_set", cfg.Sentry.DSN != "",
		"lifecycle_source", cfg.Lifecycle.Source,
		"chain_limit", cfg.ErrorChain.Limit)

	return c, nil
}

func (c *Client) setupLifecycle(override lifecycle.Source) error {
	if override != nil {
		c.source = override
		c.reconciler.Setup(override)
		return nil
	}

	lc := c.cfg.Lifecycle
	switch lc.Source {
	case config.LifecycleSourceNone:
		c.logger.Debug("Lifecycle tracking disabled")
	case config.LifecycleSourceFile:
		src, err := lifecycle.NewFileSource(lifecycle.FileSourceConfig{
			Path:     lc.StateFile,
			Debounce: lc.Debounce,
		}, c.logger)
		if err != nil {
			return fmt.Errorf("failed to create lifecycle file source: %w", err)
		}
		c.fileSource = src
		c.source = src
		c.reconciler.Setup(src)
	case config.LifecycleSourceBridge:
		// Subscribed once connected, in Run.
		c.bridge = lifecycle.NewBridgeSource(lifecycle.BridgeConfig{
			URL:              lc.BridgeURL,
			HandshakeTimeout: lc.HandshakeTimeout,
		}, c.logger)
		c.source = c.bridge
	default:
		c.source = lifecycle.DefaultSource()
		c.reconciler.Setup(c.source)
	}
	return nil
}

// Run drives the lifecycle sources that need a loop (file and bridge)
// until ctx is cancelled. It returns immediately for other sources.
func (c *Client) Run(ctx context.Context) error {
	switch {
	case c.fileSource != nil:
		return c.fileSource.Run(ctx)
	case c.bridge != nil:
		if err := c.bridge.Connect(ctx); err != nil {
			c.logger.Warn("Lifecycle bridge unavailable", "error", err)
			c.reconciler.Setup(c.bridge)
			return err
		}
		c.reconciler.Setup(c.bridge)
		return c.bridge.Run(ctx)
	default:
		return nil
	}
}

// CaptureException reports v. Go errors are sent as the original
// exception; any other value as a recovered one. The cause chain is
// attached by the normalizer before the event leaves the client.
func (c *Client) CaptureException(v any) *sentry.EventID {
	ctx := context.Background()
	event, hint := beaconevent.NewError(c.parser, v, c.clock.Now())
	if tx := c.scope.Transaction(); tx != nil {
		event.Transaction = tx.Name
		beaconevent.SetTrace(event, tx.TraceID.String(), tx.SpanID.String(), tx.Op)
		ctx = logging.WithTransaction(ctx, tx.Name, tx.TraceID.String(), tx.SpanID.String())
	}

	id := c.sentry.CaptureEvent(event, hint, c.hub.Scope())
	c.exporter.CaptureEvent(event)

	c.logger.DebugContext(ctx, "Exception captured",
		"event_id", eventIDString(id),
		"records", len(event.Exception),
	)
	return id
}

// StartTransaction starts a transaction and binds it to the scope until it
// finishes. The finished transaction is sent to Sentry and the tracer.
func (c *Client) StartTransaction(name, op string) *transaction.Transaction {
	tx := transaction.New(name, op,
		transaction.WithClock(c.clock),
		transaction.WithMaxSpans(c.cfg.Transactions.MaxSpans),
		transaction.WithSinks(c.hub, c.exporter),
		transaction.WithLogger(c.logger),
		transaction.WithMetrics(c.metrics.Transactions()),
	)
	tx.OnFinish(c.scope.Clear)
	c.scope.SetTransaction(tx)
	return tx
}

// CurrentTransaction returns the transaction in scope, or nil.
func (c *Client) CurrentTransaction() *transaction.Transaction {
	return c.scope.Transaction()
}

// Hub returns the sentry hub events are captured on.
func (c *Client) Hub() *sentry.Hub { return c.hub }

// Walker returns the chain normalizer.
func (c *Client) Walker() *errorchain.Walker { return c.walker }

// Reconciler returns the lifecycle reconciler.
func (c *Client) Reconciler() *lifecycle.Reconciler { return c.reconciler }

// LifecycleAvailable reports whether the configured lifecycle source can
// deliver transitions. It is false when lifecycle tracking is disabled.
func (c *Client) LifecycleAvailable() bool {
	return c.source != nil && c.source.Available()
}

// Metrics returns the metrics collector.
func (c *Client) Metrics() *metrics.Collector { return c.metrics }

// Logger returns the client logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Close stops the lifecycle sources, flushes pending events and shuts the
// tracer down.
func (c *Client) Close(ctx context.Context) error {
	var errs []error

	if c.fileSource != nil {
		if err := c.fileSource.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.bridge != nil {
		if err := c.bridge.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if !c.sentry.Flush(c.cfg.Sentry.FlushTimeout) {
		c.logger.Warn("Timed out flushing events", "timeout", c.cfg.Sentry.FlushTimeout)
	}

	if err := c.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down tracer: %w", err))
	}

	return errors.Join(errs...)
}
