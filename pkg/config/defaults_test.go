package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ErrorChain.Key != DefaultErrorChainKey {
					t.Errorf("expected key %q, got %q", DefaultErrorChainKey, cfg.ErrorChain.Key)
				}
				if cfg.ErrorChain.Limit != DefaultErrorChainLimit {
					t.Errorf("expected limit %d, got %d", DefaultErrorChainLimit, cfg.ErrorChain.Limit)
				}
				if cfg.Lifecycle.Source != LifecycleSourceDefault {
					t.Errorf("expected lifecycle source %q, got %q", LifecycleSourceDefault, cfg.Lifecycle.Source)
				}
				if cfg.Lifecycle.Debounce != DefaultLifecycleDebounce {
					t.Errorf("expected debounce %v, got %v", DefaultLifecycleDebounce, cfg.Lifecycle.Debounce)
				}
				if cfg.Transactions.MaxSpans != DefaultTransactionMaxSpans {
					t.Errorf("expected max spans %d, got %d", DefaultTransactionMaxSpans, cfg.Transactions.MaxSpans)
				}
				if cfg.Script.Timeout != DefaultScriptTimeout {
					t.Errorf("expected script timeout %v, got %v", DefaultScriptTimeout, cfg.Script.Timeout)
				}
				if cfg.Secrets.EnvPrefix != DefaultSecretsEnvPrefix {
					t.Errorf("expected secrets env prefix %q, got %q", DefaultSecretsEnvPrefix, cfg.Secrets.EnvPrefix)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
					t.Errorf("expected namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
				}
				if cfg.Telemetry.Tracing.Sampler != DefaultTracingSampler {
					t.Errorf("expected sampler %q, got %q", DefaultTracingSampler, cfg.Telemetry.Tracing.Sampler)
				}
			},
		},
		{
			name: "explicit values are preserved",
			input: Config{
				ErrorChain: ErrorChainConfig{Key: "reason", Limit: 2},
				Lifecycle:  LifecycleConfig{Source: LifecycleSourceFile, Debounce: time.Second},
				Telemetry: TelemetryConfig{
					Logging: LoggingConfig{Level: "debug", Format: "text"},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ErrorChain.Key != "reason" {
					t.Errorf("expected key %q, got %q", "reason", cfg.ErrorChain.Key)
				}
				if cfg.ErrorChain.Limit != 2 {
					t.Errorf("expected limit 2, got %d", cfg.ErrorChain.Limit)
				}
				if cfg.Lifecycle.Source != LifecycleSourceFile {
					t.Errorf("expected source %q, got %q", LifecycleSourceFile, cfg.Lifecycle.Source)
				}
				if cfg.Lifecycle.Debounce != time.Second {
					t.Errorf("expected debounce 1s, got %v", cfg.Lifecycle.Debounce)
				}
				if cfg.Telemetry.Logging.Format != "text" {
					t.Errorf("expected format text, got %q", cfg.Telemetry.Logging.Format)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}
