// Command stale closes abandoned issues and pull requests after a period of
// inactivity. It runs as a webhook server with a periodic sweep, or once
// against a single repository.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/stale/internal/config"
	"github.com/steveyegge/stale/internal/logging"
	"github.com/steveyegge/stale/internal/telemetry"
)

var (
	configFile string
	logLevel   string
	logFormat  string

	logger   *slog.Logger
	levelVar *slog.LevelVar
)

var rootCmd = &cobra.Command{
	Use:   "stale",
	Short: "stale - close abandoned issues and pull requests",
	Long: `Marks issues and pull requests that have had no activity for a while,
closes them if nothing happens after the warning, and removes the mark again
as soon as someone comments or pushes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(configFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			config.Set(config.KeyLogLevel, logLevel)
		}
		if cmd.Flags().Changed("log-format") {
			config.Set(config.KeyLogFormat, logFormat)
		}
		if err := config.Validate(); err != nil {
			return err
		}

		var err error
		logger, levelVar, err = logging.New(config.GetString(config.KeyLogLevel), config.GetString(config.KeyLogFormat), os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		return telemetry.Init(cmd.Context(), "stale", Version)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Service config file (default: ./stale.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(serveCmd, sweepCmd, checkCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
