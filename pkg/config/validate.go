package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "error_chain.limit").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateErrorChain(&cfg.ErrorChain)...)
	errs = append(errs, validateLifecycle(&cfg.Lifecycle)...)
	errs = append(errs, validateSentry(&cfg.Sentry)...)

	if cfg.Transactions.MaxSpans < 1 {
		errs = append(errs, FieldError{
			Field:   "transactions.max_spans",
			Message: "max spans must be at least 1",
		})
	}

	if cfg.Script.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "script.timeout",
			Message: "timeout must not be negative",
		})
	}
	if cfg.Script.MaxCallStackSize < 0 {
		errs = append(errs, FieldError{
			Field:   "script.max_call_stack_size",
			Message: "max call stack size must not be negative",
		})
	}

	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// HasSecretReference reports whether s holds a ${secret:name} reference.
// Such values are checked again once the reference is resolved.
func HasSecretReference(s string) bool {
	return strings.Contains(s, "${secret:")
}

func validateErrorChain(cfg *ErrorChainConfig) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(cfg.Key) == "" {
		errs = append(errs, FieldError{
			Field:   "error_chain.key",
			Message: "cause key is required",
		})
	}
	if cfg.Limit < 1 {
		errs = append(errs, FieldError{
			Field:   "error_chain.limit",
			Message: fmt.Sprintf("limit must be at least 1, got %d", cfg.Limit),
		})
	}

	return errs
}

func validateLifecycle(cfg *LifecycleConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case LifecycleSourceDefault, LifecycleSourceNone:
	case LifecycleSourceFile:
		if cfg.StateFile == "" {
			errs = append(errs, FieldError{
				Field:   "lifecycle.state_file",
				Message: "state file is required when source is 'file'",
			})
		}
	case LifecycleSourceBridge:
		if HasSecretReference(cfg.BridgeURL) {
			break
		}
		if cfg.BridgeURL == "" {
			errs = append(errs, FieldError{
				Field:   "lifecycle.bridge_url",
				Message: "bridge URL is required when source is 'bridge'",
			})
			break
		}
		u, err := url.Parse(cfg.BridgeURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "lifecycle.bridge_url",
				Message: fmt.Sprintf("invalid bridge URL %q: must be a ws:// or wss:// URL", cfg.BridgeURL),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "lifecycle.source",
			Message: fmt.Sprintf("invalid source %q: must be 'default', 'file', 'bridge', or 'none'", cfg.Source),
		})
	}

	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "lifecycle.debounce",
			Message: "debounce must not be negative",
		})
	}

	return errs
}

func validateSentry(cfg *SentryConfig) []FieldError {
	var errs []FieldError

	if cfg.DSN != "" && !HasSecretReference(cfg.DSN) {
		u, err := url.Parse(cfg.DSN)
		if err != nil || u.Scheme == "" || u.Host == "" || u.User == nil {
			errs = append(errs, FieldError{
				Field:   "sentry.dsn",
				Message: "DSN must look like https://<key>@<host>/<project>",
			})
		}
	}
	if cfg.FlushTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "sentry.flush_timeout",
			Message: "flush timeout must not be negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
