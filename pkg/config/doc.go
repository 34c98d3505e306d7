// Package config provides configuration management for Beacon.
//
// Configuration is read from a YAML file, completed with defaults, optionally
// overridden from the environment, and validated before use.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("beacon.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("beacon.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BEACON_SECTION_FIELD:
//
//   - BEACON_ERROR_CHAIN_LIMIT overrides error_chain.limit
//   - BEACON_LIFECYCLE_SOURCE overrides lifecycle.source
//   - BEACON_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Process-Wide Configuration
//
// The CLI installs the configuration it loaded with SetConfig. Long-running
// commands re-read the file with ReloadConfig; resolvers run before
// validation, and a failed reload keeps the installed configuration:
//
//	cfg, err := config.ReloadConfig("beacon.yaml", resolveSecrets)
//	if err != nil {
//	    logger.Warn("reload failed", "error", err)
//	}
//
// # Example Configuration
//
//	error_chain:
//	  key: "cause"
//	  limit: 5
//	  in_app_package: "com.example"
//
//	lifecycle:
//	  source: "file"
//	  state_file: "/run/app/state"
//
//	sentry:
//	  dsn: "https://public@sentry.example.com/1"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
