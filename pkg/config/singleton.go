package config

import (
	"errors"
	"fmt"
	"sync"
)

var (
	current   *Config
	currentMu sync.RWMutex
)

// Resolver completes a freshly read configuration before it is validated,
// e.g. by resolving secret references or applying command-line overrides.
type Resolver func(*Config) error

// GetConfig returns the process-wide configuration, or nil before the
// first SetConfig or successful ReloadConfig.
func GetConfig() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetConfig installs cfg as the process-wide configuration.
func SetConfig(cfg *Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = cfg
}

// ReloadConfig reads path again with defaults and BEACON_* overrides, runs
// resolvers in order and validates the result. Only a configuration that
// passes every step replaces the process-wide one; on error the installed
// configuration is kept and returned alongside the error.
func ReloadConfig(path string, resolvers ...Resolver) (*Config, error) {
	if path == "" {
		return GetConfig(), errors.New("no configuration file to reload")
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return GetConfig(), fmt.Errorf("failed to reload configuration: %w", err)
	}
	for _, resolve := range resolvers {
		if err := resolve(cfg); err != nil {
			return GetConfig(), fmt.Errorf("failed to reload configuration: %w", err)
		}
	}
	if err := Validate(cfg); err != nil {
		return GetConfig(), err
	}

	SetConfig(cfg)
	return cfg, nil
}
