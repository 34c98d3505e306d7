// Package secrets resolves ${secret:name} references in configuration
// values, so that DSNs and bridge URLs carrying credentials can stay out
// of config files.
//
// Secrets are looked up in a directory of owner-only files (one file per
// secret) and then in prefixed environment variables:
//
//	sentry:
//	  dsn: ${secret:sentry-dsn}
//	secrets:
//	  dir: /run/secrets
//	  env_prefix: BEACON_SECRET_
//
// resolves from /run/secrets/sentry-dsn, falling back to
// BEACON_SECRET_SENTRY_DSN.
package secrets
