// Package event builds and inspects Sentry error events outside the
// capture path: it creates the event and hint for a captured value,
// decodes error payloads saved by hosts (JSON or YAML), and renders the
// normalized exception list for display.
package event
