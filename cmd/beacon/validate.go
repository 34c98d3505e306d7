package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"mercator-hq/beacon/pkg/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and BEACON_* environment
overrides, and report every invalid field.

Examples:
  beacon validate --config config.yaml
  BEACON_ERROR_CHAIN_LIMIT=0 beacon validate --config config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		if fields := cli.ConfigErrors(err); len(fields) > 0 {
			fmt.Fprintf(out, "✗ Configuration invalid (%d errors)\n", len(fields))
			for _, fe := range fields {
				fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
			}
		}
		return err
	}

	fmt.Fprintln(out, "✓ Configuration valid")
	if verbose {
		fmt.Fprintf(out, "  error_chain: key=%q limit=%d\n", cfg.ErrorChain.Key, cfg.ErrorChain.Limit)
		fmt.Fprintf(out, "  lifecycle:   source=%s\n", cfg.Lifecycle.Source)
		fmt.Fprintf(out, "  sentry:      dsn set=%v\n", cfg.Sentry.DSN != "")
	}
	return nil
}
