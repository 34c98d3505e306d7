package errorchain

import "github.com/getsentry/sentry-go"

// IntegrationName is the name the integration registers under.
const IntegrationName = "NativeLinkedErrors"

// Integration installs a Walker as an event processor on a sentry client.
// Sentry sets up each integration name once per client.
type Integration struct {
	walker *Walker
}

// NewIntegration wraps w for use in sentry.ClientOptions.Integrations.
func NewIntegration(w *Walker) *Integration {
	return &Integration{walker: w}
}

// Name implements sentry.Integration.
func (i *Integration) Name() string {
	return IntegrationName
}

// SetupOnce implements sentry.Integration.
func (i *Integration) SetupOnce(client *sentry.Client) {
	client.AddEventProcessor(i.walker.Normalize)
}
