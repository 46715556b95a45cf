// ABOUTME: serve command, the Bot Framework webhook
// ABOUTME: Wires config, lazy session, channel rules, connector and HTTP server

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/foundry-agent/internal/channel"
	"github.com/2389/foundry-agent/internal/config"
	"github.com/2389/foundry-agent/internal/dedupe"
	"github.com/2389/foundry-agent/internal/m365"
	"github.com/2389/foundry-agent/internal/server"
	"github.com/2389/foundry-agent/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Microsoft 365 webhook on /api/messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)

	printBanner(os.Stdout)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	green.Print("    ▶ ")
	fmt.Printf("Endpoint:  http://%s%s\n", cfg.Server.Addr(), server.MessagesPath)
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: %s", cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		fmt.Println()
	}
	if cfg.M365.Anonymous {
		yellow.Println("    ! inbound authentication disabled (anonymous)")
	}
	fmt.Println()

	chat, closeStore, err := newChatAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// The agent starts on the first activity, not at boot.
	guard := session.NewGuard(session.New(chat, logger))
	defer guard.Stop(context.WithoutCancel(ctx))

	connections, err := m365.NewConnectionManager(cfg.M365, m365.ConnectionOptions{})
	if err != nil {
		return fmt.Errorf("configuring outbound connections: %w", err)
	}
	verifier, err := server.NewVerifier(cfg.M365, logger)
	if err != nil {
		return fmt.Errorf("configuring inbound auth: %w", err)
	}

	handler := m365.NewHandler(
		channel.NewRouter(guard, logger),
		m365.NewConnector(connections, nil, logger),
		dedupe.New(dedupe.DefaultWindow, dedupe.DefaultCapacity),
		logger,
	)

	logger.Info("starting foundry-agent webhook",
		"config", configPath,
		"addr", cfg.Server.Addr(),
		"tailscale", cfg.Tailscale.Enabled,
	)
	return server.New(cfg, handler, verifier, logger).Run(ctx)
}
