// ABOUTME: Entry point for foundry-agent
// ABOUTME: Cobra root with serve (webhook, default), cli (terminal REPL) and history commands

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/foundry-agent/internal/agent"
	"github.com/2389/foundry-agent/internal/config"
	"github.com/2389/foundry-agent/internal/foundry"
	"github.com/2389/foundry-agent/internal/logging"
	"github.com/2389/foundry-agent/internal/runtimeenv"
	"github.com/2389/foundry-agent/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  __                       _                                         _
 / _| ___  _   _ _ __   __| |_ __ _   _        __ _  __ _  ___ _ __ | |_
| |_ / _ \| | | | '_ \ / _' | '__| | | |_____ / _' |/ _' |/ _ \ '_ \| __|
|  _| (_) | |_| | | | | (_| | |  | |_| |_____| (_| | (_| |  __/ | | | |_
|_|  \___/ \__,_|_| |_|\__,_|_|   \__, |      \__,_|\__, |\___|_| |_|\__|
                                  |___/             |___/
`

var configPath string

var rootCmd = &cobra.Command{
	Use:   "foundry-agent",
	Short: "Conversational agent backed by an Azure AI Foundry deployment",
	Long: `foundry-agent answers chat messages with an Azure OpenAI deployment.
It serves the Microsoft 365 Bot Framework webhook by default, or runs an
interactive terminal session with the cli command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, err := runtimeenv.LoadLocalEnvIfNeeded(".")
		if err != nil {
			return err
		}
		if envFile != "" {
			slog.Debug("loaded environment file", "path", envFile)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("FOUNDRY_AGENT_CONFIG"),
		"Path to the YAML config file (env FOUNDRY_AGENT_CONFIG); environment only when empty")
	rootCmd.Version = version
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func printBanner(w io.Writer) {
	cyan := color.New(color.FgCyan)
	cyan.Fprint(w, banner)
	gray := color.New(color.FgHiBlack)
	gray.Fprintf(w, "    version: %s\n\n", version)
}

// newChatAgent wires the agent to the Foundry client and, when a ledger is
// configured, to the transcript store. The returned close func releases the store.
func newChatAgent(cfg *config.Config, logger *slog.Logger) (*agent.ChatAgent, func(), error) {
	opts := agent.Options{
		NewCredential: foundry.NewCredential,
		NewClient:     foundry.ClientFactory(logger),
		Logger:        logger,
	}

	closeFn := func() {}
	if cfg.Database.Path != "" {
		ledger, err := store.NewSQLiteStore(cfg.Database.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening transcript store: %w", err)
		}
		opts.Recorder = ledger
		closeFn = func() {
			if err := ledger.Close(); err != nil {
				logger.Warn("closing transcript store", "error", err)
			}
		}
	}

	return agent.NewChatAgent(opts), closeFn, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	return logger
}
