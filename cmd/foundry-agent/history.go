// ABOUTME: history command, reads the transcript ledger
// ABOUTME: Lists recent threads or prints the exchanges of one thread

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/foundry-agent/internal/cli"
	"github.com/2389/foundry-agent/internal/config"
	"github.com/2389/foundry-agent/internal/store"
)

var (
	historyThread string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd.Context(), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyThread, "thread", "", "Print the exchanges of one thread")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum threads or exchanges to show")
}

func runHistory(ctx context.Context, out io.Writer) error {
	cfg, err := config.LoadLocal(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Database.Path == "" {
		return errors.New("transcript store disabled: set database.path in the config file")
	}

	ledger, err := store.NewSQLiteStore(cfg.Database.Path, newLogger(cfg))
	if err != nil {
		return fmt.Errorf("opening transcript store: %w", err)
	}
	defer ledger.Close()

	if historyThread != "" {
		return printThread(ctx, out, ledger, historyThread, historyLimit)
	}
	return printThreads(ctx, out, ledger, historyLimit)
}

func printThreads(ctx context.Context, out io.Writer, ledger *store.SQLiteStore, limit int) error {
	threads, err := ledger.ListThreads(ctx, limit)
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		fmt.Fprintln(out, "No recorded threads.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "THREAD\tSTARTED\tLAST ACTIVITY\tEXCHANGES")
	for _, th := range threads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			th.ID,
			th.CreatedAt.Local().Format(time.DateTime),
			th.UpdatedAt.Local().Format(time.DateTime),
			th.ExchangeCount,
		)
	}
	return tw.Flush()
}

func printThread(ctx context.Context, out io.Writer, ledger *store.SQLiteStore, threadID string, limit int) error {
	exchanges, err := ledger.ThreadExchanges(ctx, threadID, limit)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("thread %s not found", threadID)
	}
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack)
	you := color.New(color.FgGreen, color.Bold)
	bot := color.New(color.FgMagenta, color.Bold)
	for _, ex := range exchanges {
		gray.Fprintf(out, "%s  %s\n", ex.CreatedAt.Local().Format(time.DateTime), ex.Command)
		you.Fprint(out, cli.Prompt)
		fmt.Fprintln(out, ex.UserText)
		bot.Fprint(out, cli.ReplyPrefix)
		fmt.Fprintln(out, ex.Reply)
		fmt.Fprintln(out)
	}
	return nil
}
