// ABOUTME: Pure classification of user text into agent commands
// ABOUTME: Exact matches (exit, clear, help) are checked before the greeting substring rule

package agent

import "strings"

// Command is what a piece of user text asks the agent to do.
type Command int

const (
	CommandPassthrough Command = iota
	CommandExit
	CommandClearHistory
	CommandHelp
	CommandGreeting
)

func (c Command) String() string {
	switch c {
	case CommandExit:
		return "exit"
	case CommandClearHistory:
		return "clear_history"
	case CommandHelp:
		return "help"
	case CommandGreeting:
		return "greeting"
	default:
		return "passthrough"
	}
}

// Fixed replies.
const (
	ReplyFarewell = "¡Adiós! Que tengas un buen día."
	ReplyCleared  = "Historial limpiado. Nuevo chat iniciado."
	ReplyGreeting = "¡Hola! ¿En qué puedo ayudarte hoy?"
	ReplyHelp     = "Comandos: /help, /clear. O escribe una pregunta normal."
	ReplyApology  = "Lo siento, ocurrió un error al procesar tu mensaje."
)

// HelpCommand is the literal that asks for usage.
const HelpCommand = "/help"

var (
	exitWords  = []string{"exit", "salir", "quit", "adios"}
	clearWords = []string{"clear", "limpiar"}
)

// Classify maps user text to a Command. It has no side effects.
func Classify(text string) Command {
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch {
	case matchesAny(normalized, exitWords):
		return CommandExit
	case matchesAny(normalized, clearWords):
		return CommandClearHistory
	case normalized == HelpCommand:
		return CommandHelp
	case strings.Contains(normalized, "hola"):
		return CommandGreeting
	default:
		return CommandPassthrough
	}
}

func matchesAny(s string, words []string) bool {
	for _, w := range words {
		if s == w {
			return true
		}
	}
	return false
}
