// ABOUTME: Interactive terminal channel: one blocking read-eval loop over a session
// ABOUTME: Starts the session up front and always stops it on the way out

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/foundry-agent/internal/agent"
)

// Terminal strings.
const (
	Prompt          = "[Tu]: "
	ReplyPrefix     = "[Asistente]: "
	InterruptNotice = "Sesión interrumpida."
	ErrorNotice     = "[Error]: Ocurrió un error inesperado. Intenta de nuevo."
)

// Session is the lifecycle the REPL drives.
type Session interface {
	Start(ctx context.Context) error
	Ask(ctx context.Context, text string) (string, error)
	Stop(ctx context.Context)
}

// REPL reads lines from in and writes replies to out.
type REPL struct {
	session Session
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger

	banner *color.Color
	you    *color.Color
	bot    *color.Color
	warn   *color.Color
}

// New creates a REPL.
func New(session Session, in io.Reader, out io.Writer, logger *slog.Logger) *REPL {
	if logger == nil {
		logger = slog.Default()
	}
	return &REPL{
		session: session,
		in:      in,
		out:     out,
		logger:  logger.With("component", "cli"),
		banner:  color.New(color.FgCyan, color.Bold),
		you:     color.New(color.FgGreen, color.Bold),
		bot:     color.New(color.FgMagenta, color.Bold),
		warn:    color.New(color.FgYellow),
	}
}

type readResult struct {
	line string
	err  error
}

// Run starts the session, loops until exit, EOF or ctx cancellation, and stops
// the session. Only a failed start is returned.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.session.Start(ctx); err != nil {
		return err
	}
	// Stop must run even when ctx is already cancelled.
	defer r.session.Stop(context.WithoutCancel(ctx))

	r.printBanner()

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := make(chan readResult)
	go r.readLines(readCtx, lines)

	for {
		fmt.Fprintln(r.out)
		r.you.Fprint(r.out, Prompt)

		var res readResult
		select {
		case <-ctx.Done():
			r.interrupted()
			return nil
		case res = <-lines:
		}
		if res.err != nil {
			if res.err != io.EOF {
				r.logger.Error("reading input", "error", res.err)
			}
			r.interrupted()
			return nil
		}

		input := strings.TrimSpace(res.line)
		if input == "" {
			continue
		}

		reply, err := r.session.Ask(ctx, input)
		if err != nil {
			r.logger.Error("ask failed", "error", err)
			fmt.Fprintln(r.out)
			r.warn.Fprintln(r.out, ErrorNotice)
			continue
		}

		fmt.Fprintln(r.out)
		r.bot.Fprint(r.out, ReplyPrefix)
		fmt.Fprintln(r.out, reply)

		if agent.Classify(input) == agent.CommandExit {
			return nil
		}
	}
}

// readLines feeds lines until the reader fails or ctx ends.
func (r *REPL) readLines(ctx context.Context, lines chan<- readResult) {
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		select {
		case lines <- readResult{line: scanner.Text()}:
		case <-ctx.Done():
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case lines <- readResult{err: err}:
	case <-ctx.Done():
	}
}

func (r *REPL) printBanner() {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(r.out)
	r.banner.Fprintln(r.out, rule)
	r.banner.Fprintln(r.out, " CHAT INTERACTIVO - Foundry Agent")
	r.banner.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, " Escribe 'exit' o 'salir' para terminar")
	fmt.Fprintln(r.out, " Escribe 'clear' o 'limpiar' para limpiar el historial")
	r.banner.Fprintln(r.out, rule)
}

func (r *REPL) interrupted() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out)
	r.warn.Fprintln(r.out, InterruptNotice)
}
