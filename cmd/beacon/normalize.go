package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/beacon/pkg/cli"
	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/errorchain"
	"mercator-hq/beacon/pkg/event"
	"mercator-hq/beacon/pkg/stacktrace"
)

var normalizeFlags struct {
	format string
	key    string
	limit  int
	inApp  string
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize FILE",
	Short: "Normalize the cause chain of a captured error payload",
	Long: `Read an error object captured by a host shell (JSON or YAML), build the
event the client would send for it, and print the normalized exception
records, oldest cause first. Use "-" to read the payload from stdin.

Examples:
  # Normalize a payload with the configured chain limit
  beacon normalize crash.json

  # Follow a custom cause key and mark frames of com.example as in-app
  beacon normalize crash.yaml --key underlying --in-app com.example

  # Emit the records as JSON
  cat crash.json | beacon normalize - --format json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringVar(&normalizeFlags.format, "format", "", "payload format: json, yaml (inferred from the file name when empty)")
	normalizeCmd.Flags().StringVar(&normalizeFlags.key, "key", "", "override error_chain.key")
	normalizeCmd.Flags().IntVar(&normalizeFlags.limit, "limit", 0, "override error_chain.limit")
	normalizeCmd.Flags().StringVar(&normalizeFlags.inApp, "in-app", "", "override error_chain.in_app_package")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := formatter()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, nil)
	if err != nil {
		return cli.NewCommandError("normalize", err)
	}

	chain := cfg.ErrorChain
	if normalizeFlags.key != "" {
		chain.Key = normalizeFlags.key
	}
	if normalizeFlags.limit > 0 {
		chain.Limit = normalizeFlags.limit
	}
	if normalizeFlags.inApp != "" {
		chain.InAppPackage = normalizeFlags.inApp
	}

	data, err := readPayload(cmd.InOrStdin(), args[0])
	if err != nil {
		return cli.NewCommandError("normalize", err)
	}
	format := normalizeFlags.format
	if format == "" {
		format = event.FormatOf(args[0])
	}

	summary, err := normalizePayload(data, format, chain, logger)
	if err != nil {
		return cli.NewCommandError("normalize", err)
	}
	return f.FormatTo(cmd.OutOrStdout(), summary)
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

// normalizePayload builds the event for a decoded payload and runs it
// through the chain normalizer.
func normalizePayload(data []byte, format string, chain config.ErrorChainConfig, logger *slog.Logger) (event.Summary, error) {
	obj, err := event.Decode(data, format)
	if err != nil {
		return event.Summary{}, err
	}

	walker := errorchain.New(errorchain.Options{
		Key:          chain.Key,
		Limit:        chain.Limit,
		InAppPackage: chain.InAppPackage,
		Parser:       stacktrace.Parse,
		Logger:       logger,
	})

	ev, hint := event.NewError(stacktrace.Parse, obj, time.Now())
	ev = walker.Normalize(ev, hint)
	return event.Summarize(ev), nil
}
