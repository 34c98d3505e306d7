package metrics

import (
	"sync"

	"mercator-hq/beacon/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and the metric subsystems of the
// client. Subsystem accessors never return nil; when metrics are disabled
// the returned recorders are inert.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	chainMetrics       *ChainMetrics
	lifecycleMetrics   *LifecycleMetrics
	transactionMetrics *TransactionMetrics
	scriptMetrics      *ScriptMetrics
}

// NewCollector creates a collector registering every subsystem on registry.
// A nil registry gets a fresh private one.
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.chainMetrics = NewChainMetrics(cfg, registry)
	c.lifecycleMetrics = NewLifecycleMetrics(cfg, registry)
	c.transactionMetrics = NewTransactionMetrics(cfg, registry)
	c.scriptMetrics = NewScriptMetrics(cfg, registry)

	return c
}

// Chain returns the error chain metrics.
func (c *Collector) Chain() *ChainMetrics { return c.chainMetrics }

// Lifecycle returns the lifecycle reconciler metrics.
func (c *Collector) Lifecycle() *LifecycleMetrics { return c.lifecycleMetrics }

// Transactions returns the transaction metrics.
func (c *Collector) Transactions() *TransactionMetrics { return c.transactionMetrics }

// Scripts returns the script runtime metrics.
func (c *Collector) Scripts() *ScriptMetrics { return c.scriptMetrics }

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
