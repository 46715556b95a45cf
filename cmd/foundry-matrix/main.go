// ABOUTME: Entry point for foundry-matrix bridge
// ABOUTME: Answers Matrix room messages with the Foundry agent through the shared channel rules

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/foundry-agent/internal/agent"
	"github.com/2389/foundry-agent/internal/channel"
	"github.com/2389/foundry-agent/internal/config"
	"github.com/2389/foundry-agent/internal/foundry"
	"github.com/2389/foundry-agent/internal/logging"
	"github.com/2389/foundry-agent/internal/runtimeenv"
	"github.com/2389/foundry-agent/internal/session"
	"github.com/2389/foundry-agent/internal/store"
)

const banner = `
  __                       _                                _        _
 / _| ___  _   _ _ __   __| |_ __ _   _       _ __ ___   __ _| |_ _ __(_)_  __
| |_ / _ \| | | | '_ \ / _' | '__| | | |_____| '_ ' _ \ / _' | __| '__| \ \/ /
|  _| (_) | |_| | | | | (_| | |  | |_| |_____| | | | | | (_| | |_| |  | |>  <
|_|  \___/ \__,_|_| |_|\__,_|_|   \__, |     |_| |_| |_|\__,_|\__|_|  |_/_/\_\
                                  |___/
`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	if _, err := runtimeenv.LoadLocalEnvIfNeeded("."); err != nil {
		return err
	}

	configPath := getConfigPath()
	cfg, err := Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	logger := logging.New(config.LoggingConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, os.Stdout)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Homeserver: %s\n", cfg.Matrix.Homeserver)
	green.Print("    ▶ ")
	fmt.Printf("User:       %s\n", cfg.Matrix.UserID)
	if cfg.Agent.DatabasePath != "" {
		green.Print("    ▶ ")
		fmt.Printf("Ledger:     %s\n", cfg.Agent.DatabasePath)
	}
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := agent.Options{
		NewCredential: foundry.NewCredential,
		NewClient:     foundry.ClientFactory(logger),
		Logger:        logger,
	}
	if cfg.Agent.DatabasePath != "" {
		ledger, err := store.NewSQLiteStore(cfg.Agent.DatabasePath, logger)
		if err != nil {
			return fmt.Errorf("opening transcript store: %w", err)
		}
		defer ledger.Close()
		opts.Recorder = ledger
	}

	// One agent for every room; it starts on the first message.
	guard := session.NewGuard(session.New(agent.NewChatAgent(opts), logger))
	defer guard.Stop(context.WithoutCancel(ctx))

	bridge, err := NewBridge(cfg, channel.NewRouter(guard, logger), logger)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	logger.Info("starting bridge")
	return bridge.Run(ctx)
}

func runInit() error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println("    Interactive Setup")
	fmt.Println("    -----------------")
	fmt.Println()

	configPath := getConfigPath()
	reader := bufio.NewReader(os.Stdin)

	if _, err := os.Stat(configPath); err == nil {
		yellow.Printf("    Config already exists at %s\n", configPath)
		fmt.Print("    Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("    Aborted.")
			return nil
		}
		fmt.Println()
	}

	ask := func(question, defaultVal string) string {
		green.Print("    ▶ ")
		fmt.Print(question)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return defaultVal
		}
		return answer
	}

	homeserver := ask("Matrix homeserver URL [https://matrix.org]: ", "https://matrix.org")
	userID := ask("Matrix user ID (e.g. @agent:matrix.org): ", "")
	accessToken := ask("Matrix access token: ", "")
	prefix := ask("Command prefix (optional, e.g. '!agent '): ", "")
	dbPath := ask("Transcript database path (optional): ", "")

	content := renderConfig(homeserver, userID, accessToken, prefix, dbPath)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println()
	green.Printf("    ✓ Config written to %s\n", configPath)
	fmt.Println()
	fmt.Println("    Next steps:")
	fmt.Println("    1. Set ENDPOINT_OPENAI, DEPLOYMENT_NAME and API_VERSION (or a .env file)")
	fmt.Println("    2. Run: foundry-matrix")
	fmt.Println()
	return nil
}

// renderConfig produces the TOML written by init.
func renderConfig(homeserver, userID, accessToken, prefix, dbPath string) string {
	return fmt.Sprintf(`# foundry-matrix bridge configuration
# Generated by foundry-matrix init

[matrix]
homeserver = %q
user_id = %q
access_token = %q

[agent]
# Record exchanges to this SQLite file (empty = disabled)
database_path = %q

[bridge]
# Only respond in these rooms (empty = all joined rooms)
allowed_rooms = []
# Require messages start with this prefix (empty = respond to all)
command_prefix = %q
# Send typing indicator while the agent answers
typing_indicator = true

[logging]
level = "info"
`, homeserver, userID, accessToken, dbPath, prefix)
}
