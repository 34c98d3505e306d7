package secrets

import "context"

// Provider retrieves secrets from a backend.
type Provider interface {
	// GetSecret retrieves a secret by name.
	GetSecret(ctx context.Context, name string) (string, error)

	// Name returns the provider name (env, file).
	Name() string

	// Supports indicates if this provider can resolve the given secret name.
	Supports(name string) bool
}
