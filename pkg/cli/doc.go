/*
Package cli provides command-line helpers for the beacon command.

Output Formatting:

Command results render as text, JSON or YAML. Results implementing
TextWriter control their own text layout:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

Errors:

ConfigError and CommandError carry the failing field or command, and
ExitCode maps any returned error to the process exit code.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
