package config

import "time"

// Config is the root configuration structure for Beacon.
// It contains the settings for error-chain normalization, lifecycle
// tracking, the Sentry client, and the telemetry stack.
type Config struct {
	// ErrorChain configures how cause chains of reported errors are walked.
	ErrorChain ErrorChainConfig `yaml:"error_chain"`

	// Lifecycle configures the foreground/background source feeding the
	// span reconciler.
	Lifecycle LifecycleConfig `yaml:"lifecycle"`

	// Sentry contains the client options handed to sentry-go.
	Sentry SentryConfig `yaml:"sentry"`

	// Transactions contains settings for the transaction span recorder.
	Transactions TransactionConfig `yaml:"transactions"`

	// Script contains settings for the embedded script runtime.
	Script ScriptConfig `yaml:"script"`

	// Secrets configures where ${secret:name} references are resolved from.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ErrorChainConfig contains configuration for the cause-chain walker.
type ErrorChainConfig struct {
	// Key is the property holding the cause of an error object.
	// Default: "cause"
	Key string `yaml:"key"`

	// Limit is the maximum number of records a normalized chain may hold,
	// counting the already captured top-level exception.
	// Default: 5
	Limit int `yaml:"limit"`

	// InAppPackage marks managed-runtime frames whose class name starts with
	// this prefix as in-app. Empty disables in-app marking.
	InAppPackage string `yaml:"in_app_package"`
}

// LifecycleConfig contains configuration for the lifecycle event source.
type LifecycleConfig struct {
	// Source selects where foreground/background transitions come from.
	// Options: "default" (in-process emitter), "file", "bridge", "none"
	// Default: "default"
	Source string `yaml:"source"`

	// StateFile is the file the host shell writes the current state to.
	// Required when Source is "file".
	StateFile string `yaml:"state_file"`

	// BridgeURL is the websocket URL of the native host bridge.
	// Required when Source is "bridge". Example: "ws://127.0.0.1:8088/lifecycle"
	BridgeURL string `yaml:"bridge_url"`

	// Debounce collapses bursts of file writes into a single transition.
	// Default: 50ms
	Debounce time.Duration `yaml:"debounce"`

	// HandshakeTimeout bounds the websocket handshake with the bridge.
	// Default: 10s
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// SentryConfig contains the sentry-go client options.
type SentryConfig struct {
	// DSN is the project DSN. Empty keeps the client local (nothing is sent).
	DSN string `yaml:"dsn"`

	// Environment is attached to every event.
	Environment string `yaml:"environment"`

	// Release is attached to every event.
	Release string `yaml:"release"`

	// Debug enables sentry-go's internal debug logging.
	Debug bool `yaml:"debug"`

	// FlushTimeout bounds how long Close waits for queued events.
	// Default: 2s
	FlushTimeout time.Duration `yaml:"flush_timeout"`
}

// TransactionConfig contains configuration for transactions.
type TransactionConfig struct {
	// MaxSpans caps the number of child spans a transaction records.
	// Default: 1000
	MaxSpans int `yaml:"max_spans"`
}

// ScriptConfig contains configuration for the script runtime.
type ScriptConfig struct {
	// Timeout interrupts scripts running longer than this.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	// MaxCallStackSize bounds script recursion depth.
	// Default: 1024
	MaxCallStackSize int `yaml:"max_call_stack_size"`
}

// SecretsConfig contains configuration for secret references.
type SecretsConfig struct {
	// Dir holds one file per secret, readable by the owner only.
	// Empty disables file lookup.
	Dir string `yaml:"dir"`

	// EnvPrefix is prepended to environment variable names of secrets.
	// Default: "BEACON_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic PII redaction in logs.
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom PII redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom PII redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where `beacon run` serves the metrics endpoint.
	// Empty disables the endpoint while still collecting.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "beacon"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "client"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether finished transactions are exported over OTLP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "beacon"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
