// ABOUTME: Channel-level rules shared by the webhook and Matrix front-ends
// ABOUTME: Handles help, empty text and exit locally before anything reaches the session

package channel

import (
	"context"
	"log/slog"
	"strings"

	"github.com/2389/foundry-agent/internal/agent"
)

// Fixed replies for chat channels.
const (
	ReplyWelcome = "Hola, soy tu agente conectado a Foundry. Escribe /help para ayuda."
	ReplyNoText  = "No recibí texto en el mensaje."
	ReplyNoExit  = "En este canal no se cierra sesión con 'exit'. Puedes seguir conversando."
)

// ClearCommand is the chat form of the agent's clear command.
const ClearCommand = "/clear"

// exit words a chat channel refuses. "adios" is left to the agent.
var exitWords = map[string]bool{"exit": true, "salir": true, "quit": true}

// Asker is the session surface a channel needs.
type Asker interface {
	Ask(ctx context.Context, text string) (string, error)
}

// Router turns one inbound chat message into one reply.
type Router struct {
	asker  Asker
	logger *slog.Logger
}

// NewRouter creates a Router that forwards to asker.
func NewRouter(asker Asker, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		asker:  asker,
		logger: logger.With("component", "channel"),
	}
}

// Welcome is sent when a user joins a conversation.
func (r *Router) Welcome() string {
	return ReplyWelcome
}

// Handle returns the reply for text. Errors come only from the session, such
// as a failed lazy start.
func (r *Router) Handle(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)

	switch {
	case text == agent.HelpCommand:
		return agent.ReplyHelp, nil
	case text == "":
		return ReplyNoText, nil
	case exitWords[strings.ToLower(text)]:
		return ReplyNoExit, nil
	case text == ClearCommand:
		r.logger.Debug("clear requested")
		return r.asker.Ask(ctx, "clear")
	default:
		return r.asker.Ask(ctx, text)
	}
}
