package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/beacon/pkg/cli"
	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/secrets"
	"mercator-hq/beacon/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Beacon - error chain and lifecycle tooling for the beacon client",
	Long: `Beacon reports errors with their full cause chain and keeps transaction
timing honest while the host application is in the background.

The CLI exposes both halves of the client:
  - normalize: walk the cause chain of a captured error payload
  - simulate:  replay foreground/background transitions through a transaction
  - run:       run the client against a lifecycle source`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration named by --config, or the defaults
// when no file is given, resolves its secret references and installs it as
// the process-wide config.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			var verr config.ValidationError
			if errors.As(err, &verr) {
				return nil, err
			}
			return nil, cli.NewConfigError("config", err.Error())
		}
		cfg = loaded
	}

	if err := resolveSecrets(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	config.SetConfig(cfg)
	return cfg, nil
}

// resolveSecrets replaces the ${secret:name} references of cfg.
func resolveSecrets(cfg *config.Config) error {
	m, err := secrets.FromConfig(cfg.Secrets, slog.Default())
	if err != nil {
		return cli.NewConfigError("secrets.dir", err.Error())
	}
	if err := m.ResolveConfig(context.Background(), cfg); err != nil {
		return cli.NewConfigError("secrets", err.Error())
	}
	return nil
}

// logLevel is the configured log level, raised to debug by --verbose.
func logLevel(cfg *config.Config) string {
	if verbose {
		return "debug"
	}
	return cfg.Telemetry.Logging.Level
}

// newLogger builds the command logger. Logs go to stderr so that command
// output stays parseable. A non-nil level lets the caller change the level
// later.
func newLogger(cfg *config.Config, level *slog.LevelVar) (*slog.Logger, error) {
	logCfg := logging.FromConfig(cfg.Telemetry.Logging, os.Stderr)
	logCfg.Level = logLevel(cfg)
	logCfg.LevelVar = level
	return logging.New(logCfg)
}

func formatter() (cli.Formatter, error) {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, cli.NewConfigError("output", err.Error())
	}
	return cli.NewFormatter(format), nil
}
