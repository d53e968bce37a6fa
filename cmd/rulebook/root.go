package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/rulebook/pkg/cli"
	"mercator-hq/rulebook/pkg/config"
	"mercator-hq/rulebook/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "rulebook",
	Short: "Rulebook - registry of coding rules parsed from Markdown",
	Long: `Rulebook reads the Markdown rules documents that coding assistants and
CI hooks consume (.cursorrules, .cursor/rules/*.mdc, AGENTS.md style files) and
turns each into an immutable registry of named rules.

Every numbered list item that opens with a bold title is one rule. The title
becomes a stable kebab-case id, so "**API Resilience**" is "api-resilience".`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default rulebook.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig reads the configuration named by --config, applies the
// environment and flag overrides and installs it as the process config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, cli.NewConfigError("log-level", err.Error())
		}
	}

	config.SetConfig(cfg)
	return cfg, nil
}

// newLogger builds the logger for a command. One-shot commands only log
// warnings unless --log-level asks for more.
func newLogger(cfg *config.Config, oneShot bool) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging, os.Stderr)
	if oneShot && logLevel == "" {
		lc.Level = "warn"
	}

	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// output returns where a command writes its results.
func output(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}
