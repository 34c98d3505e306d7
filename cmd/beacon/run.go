package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/beacon/pkg/cli"
	"mercator-hq/beacon/pkg/client"
	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/script"
	"mercator-hq/beacon/pkg/telemetry/health"
	"mercator-hq/beacon/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	scriptFile    string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the beacon client",
	Long: `Run the beacon client against the configured lifecycle source until
interrupted. Lifecycle transitions are reconciled into the transaction in
scope, and errors are reported with their normalized cause chain.

When telemetry.metrics.listen_address is set, Prometheus metrics are served
on telemetry.metrics.path next to /health, /ready and /version.

With --script, the given JavaScript file runs inside a transaction once the
client is up; anything it throws is reported.

SIGHUP re-reads the config file and applies its log level without a
restart. Other settings take effect on the next start.

Examples:
  # Run with a config file
  beacon run --config /etc/beacon/config.yaml

  # Serve metrics on a custom address
  beacon run --listen 127.0.0.1:9102

  # Run a script inside a transaction
  beacon run --script checkout.js

  # Validate config without starting the client
  beacon run --dry-run`,
	RunE: runClient,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override telemetry.metrics.listen_address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.scriptFile, "script", "", "JavaScript file to run inside a transaction")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the client")
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := applyRunFlags(cfg); err != nil {
		return err
	}
	// Flag overrides are checked the same way as the file.
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.SetConfig(cfg)

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	level := new(slog.LevelVar)
	logger, err := newLogger(cfg, level)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	slog.SetDefault(logger)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	reloads, stopReload := cli.NotifyReload()
	defer stopReload()
	go watchReload(ctx, reloads, level, logger)

	return serve(ctx, cfg, logger, out, runFlags.scriptFile)
}

// applyRunFlags applies the run flags on top of a loaded configuration.
func applyRunFlags(cfg *config.Config) error {
	if runFlags.listenAddress != "" {
		cfg.Telemetry.Metrics.ListenAddress = runFlags.listenAddress
		cfg.Telemetry.Metrics.Enabled = true
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	return nil
}

// watchReload reloads the configuration on every value from signals until
// ctx is done. A failed reload keeps the running settings.
func watchReload(ctx context.Context, signals <-chan os.Signal, level *slog.LevelVar, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			if err := reload(level, logger); err != nil {
				logger.Warn("Configuration reload failed, keeping current settings", "error", err)
			}
		}
	}
}

// reload re-reads --config, installs it process-wide and applies its log
// level to the running logger. Other settings take effect on restart.
func reload(level *slog.LevelVar, logger *slog.Logger) error {
	cfg, err := config.ReloadConfig(cfgFile, resolveSecrets, applyRunFlags)
	if err != nil {
		return err
	}
	if err := logging.SetLevel(level, logLevel(cfg)); err != nil {
		return err
	}
	logger.Info("Configuration reloaded", "config", cfgFile, "log_level", level.Level().String())
	return nil
}

// serve runs the client until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, scriptFile string) error {
	c, err := client.New(cfg, client.WithLogger(logger), client.WithVersion(Version))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Sentry.FlushTimeout+time.Second)
		defer cancel()
		if err := c.Close(shutdownCtx); err != nil {
			logger.Error("Client shutdown failed", "error", err)
		}
	}()

	fmt.Fprintf(out, "Beacon v%s\n", Version)
	fmt.Fprintf(out, "✓ Client started (lifecycle source: %s)\n", cfg.Lifecycle.Source)

	var srv *http.Server
	if addr := cfg.Telemetry.Metrics.ListenAddress; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to listen on %s: %w", addr, err))
		}
		srv = &http.Server{Handler: c.RecoverHandler(adminMux(cfg, c)), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Admin server failed", "error", err)
			}
		}()
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", ln.Addr(), cfg.Telemetry.Metrics.Path)
		fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", ln.Addr())
	}

	go func() {
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Lifecycle source stopped", "error", err)
		}
	}()

	if scriptFile != "" {
		if err := runScript(ctx, cfg, c, scriptFile, out); err != nil {
			logger.Warn("Script failed", "script", scriptFile, "error", err)
		}
	}

	fmt.Fprintln(out, "Press Ctrl+C to stop")
	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin server shutdown failed", "error", err)
		}
	}
	fmt.Fprintln(out, "✓ Client stopped")
	return nil
}

// adminMux serves metrics and health probes for a running client.
func adminMux(cfg *config.Config, c *client.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, c.Metrics().Handler())

	checker := health.New(2*time.Second, nil)
	if cfg.Lifecycle.Source != config.LifecycleSourceNone {
		checker.RegisterCheck("lifecycle_source", func(context.Context) error {
			if !c.LifecycleAvailable() {
				return errors.New("lifecycle source unavailable")
			}
			return nil
		})
	}
	health.Register(mux, checker, health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	return mux
}

// runScript runs a script file inside its own transaction. Thrown values
// are reported by the client.
func runScript(ctx context.Context, cfg *config.Config, c *client.Client, path string, out io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	name := filepath.Base(path)

	rt := script.New(cfg.Script,
		script.WithReporter(c),
		script.WithLogger(c.Logger()),
		script.WithMetrics(c.Metrics().Scripts()),
	)

	tx := c.StartTransaction(name, "script.run")
	defer tx.Finish()

	result, err := rt.Run(ctx, name, string(src))
	if result != nil {
		fmt.Fprintf(out, "✓ Script %s finished: %s in %s\n", name, result.Status, result.Duration.Round(time.Millisecond))
		if result.EventID != nil {
			fmt.Fprintf(out, "  reported event %s\n", *result.EventID)
		}
	}
	return err
}
