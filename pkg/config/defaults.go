package config

import "time"

// Default values for configuration fields.
const (
	// Error chain defaults
	DefaultErrorChainKey   = "cause"
	DefaultErrorChainLimit = 5

	// Lifecycle defaults
	DefaultLifecycleSource           = LifecycleSourceDefault
	DefaultLifecycleDebounce         = 50 * time.Millisecond
	DefaultLifecycleHandshakeTimeout = 10 * time.Second

	// Sentry defaults
	DefaultSentryFlushTimeout = 2 * time.Second

	// Transaction defaults
	DefaultTransactionMaxSpans = 1000

	// Script defaults
	DefaultScriptTimeout          = 5 * time.Second
	DefaultScriptMaxCallStackSize = 1024

	// Secrets defaults
	DefaultSecretsEnvPrefix = "BEACON_SECRET_"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "beacon"
	DefaultMetricsSubsystem   = "client"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "beacon"
	DefaultOTLPTimeout        = 10 * time.Second
)

// Lifecycle source names.
const (
	LifecycleSourceDefault = "default"
	LifecycleSourceFile    = "file"
	LifecycleSourceBridge  = "bridge"
	LifecycleSourceNone    = "none"
)

// ApplyDefaults fills every unset field of cfg with its default value.
// Fields that already hold a non-zero value are left untouched.
func ApplyDefaults(cfg *Config) {
	// Error chain defaults
	if cfg.ErrorChain.Key == "" {
		cfg.ErrorChain.Key = DefaultErrorChainKey
	}
	if cfg.ErrorChain.Limit == 0 {
		cfg.ErrorChain.Limit = DefaultErrorChainLimit
	}

	// Lifecycle defaults
	if cfg.Lifecycle.Source == "" {
		cfg.Lifecycle.Source = DefaultLifecycleSource
	}
	if cfg.Lifecycle.Debounce == 0 {
		cfg.Lifecycle.Debounce = DefaultLifecycleDebounce
	}
	if cfg.Lifecycle.HandshakeTimeout == 0 {
		cfg.Lifecycle.HandshakeTimeout = DefaultLifecycleHandshakeTimeout
	}

	if cfg.Sentry.FlushTimeout == 0 {
		cfg.Sentry.FlushTimeout = DefaultSentryFlushTimeout
	}

	if cfg.Transactions.MaxSpans == 0 {
		cfg.Transactions.MaxSpans = DefaultTransactionMaxSpans
	}

	if cfg.Script.Timeout == 0 {
		cfg.Script.Timeout = DefaultScriptTimeout
	}
	if cfg.Script.MaxCallStackSize == 0 {
		cfg.Script.MaxCallStackSize = DefaultScriptMaxCallStackSize
	}

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}

// Default returns a configuration populated entirely with default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
