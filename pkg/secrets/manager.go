package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/beacon/pkg/config"
)

// secretRefRegex matches ${secret:name} references in configuration values.
var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager tries providers in order until one returns a value.
type Manager struct {
	providers []Provider
	logger    *slog.Logger
}

// NewManager creates a manager over providers, tried in the given order.
func NewManager(logger *slog.Logger, providers ...Provider) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{providers: providers, logger: logger}
}

// FromConfig builds the manager described by cfg: the secrets directory
// first when set, then the environment.
func FromConfig(cfg config.SecretsConfig, logger *slog.Logger) (*Manager, error) {
	var providers []Provider
	if cfg.Dir != "" {
		fp, err := NewFileProvider(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open secrets directory: %w", err)
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))
	return NewManager(logger, providers...), nil
}

// GetSecret retrieves a secret from the first provider that supports it.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, provider := range m.providers {
		if !provider.Supports(name) {
			continue
		}
		value, err := provider.GetSecret(ctx, name)
		if err != nil {
			lastErr = err
			m.logger.Debug("provider failed to get secret",
				"provider", provider.Name(),
				"name", redactSecretName(name),
				"error", err,
			)
			continue
		}
		m.logger.Debug("secret retrieved", "provider", provider.Name(), "name", redactSecretName(name))
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("secret not found: %q (no provider supports this secret)", name)
}

// ResolveReferences replaces ${secret:name} references in input. References
// that cannot be resolved are kept and reported in the error.
func (m *Manager) ResolveReferences(ctx context.Context, input string) (string, error) {
	var errs []string

	output := secretRefRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err.Error())
			return match
		}
		return value
	})

	if len(errs) > 0 {
		return output, fmt.Errorf("failed to resolve secret references: %s", strings.Join(errs, "; "))
	}
	return output, nil
}

// ResolveConfig resolves the secret references in the configuration
// fields that may carry credentials: the Sentry DSN and the bridge URL.
func (m *Manager) ResolveConfig(ctx context.Context, cfg *config.Config) error {
	for _, field := range []*string{&cfg.Sentry.DSN, &cfg.Lifecycle.BridgeURL} {
		if !config.HasSecretReference(*field) {
			continue
		}
		resolved, err := m.ResolveReferences(ctx, *field)
		if err != nil {
			return err
		}
		*field = resolved
	}
	return nil
}

func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
