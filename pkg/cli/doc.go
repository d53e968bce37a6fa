/*
Package cli provides command-line interface utilities for the rulebook command.

Output Formatting:

Command results are written as text, JSON or CSV. Results render themselves
as text by implementing TextWriter and as CSV by implementing Tabular:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Errors:

CommandError wraps a failure with the command that produced it. ConfigError
marks bad flags or configuration, which ExitCode maps to exit status 2.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
