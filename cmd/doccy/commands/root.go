// ABOUTME: Root command, global flags, and shared service construction for the CLI
// ABOUTME: Every subcommand builds services through loadServices
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/doccy/internal/app"
	"github.com/harper/doccy/internal/config"
	"github.com/harper/doccy/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

// newServices is swapped in tests to inject a fake gateway and store
var newServices = app.NewServices

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doccy",
		Short: "Documentation assistant backed by routed LLM agents",
		Long: `Doccy routes questions and documents through a set of LLM agents.

A router model picks the documentation, retrieval or feedback agent
for each turn until it decides the answer is complete. Doccy also
tags and enriches documents, extracts text from uploads, and keeps
JSON documents in a blob store (Azure, Charm, SQLite or memory).

Configuration comes from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewResearchCmd())
	cmd.AddCommand(NewIntentCmd())
	cmd.AddCommand(NewOrganizeCmd())
	cmd.AddCommand(NewEnrichCmd())
	cmd.AddCommand(NewPreprocessCmd())
	cmd.AddCommand(NewStoreCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// logLevel applies --verbose and --quiet over def
func logLevel(def slog.Level) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return def
	}
}

// loadServices reads configuration, applies overrides, and builds the shared
// services. Logs go to stderr so command output stays clean on stdout.
func loadServices(cmd *cobra.Command, overrides ...func(*config.Config)) (*app.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	logger := logging.New(cmd.ErrOrStderr(), logLevel(cfg.LogLevel))
	return newServices(cfg, logger)
}

// signalContext is cancelled on interrupt or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
