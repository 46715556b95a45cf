// ABOUTME: cli command, an interactive terminal session with the agent
// ABOUTME: Starts the session eagerly and hands stdin/stdout to the REPL

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389/foundry-agent/internal/cli"
	"github.com/2389/foundry-agent/internal/config"
	"github.com/2389/foundry-agent/internal/session"
)

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Chat with the agent in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCLI(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(cliCmd)
}

func runCLI(ctx context.Context) error {
	cfg, err := config.LoadLocal(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)

	chat, closeStore, err := newChatAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	repl := cli.New(session.New(chat, logger), os.Stdin, os.Stdout, logger)
	if err := repl.Run(ctx); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	return nil
}
