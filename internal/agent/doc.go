// Package agent defines the conversational backend contract and its
// Azure OpenAI implementation.
//
// # Overview
//
// Every channel (terminal, Bot Framework webhook, Matrix) talks to a single
// Capability through the session package. A Capability is prepared once,
// answers messages, and releases its resources:
//
//	type Capability interface {
//	    Initialize(ctx context.Context) error
//	    ProcessMessage(ctx context.Context, text string) (string, error)
//	    Cleanup(ctx context.Context)
//	}
//
// # ChatAgent
//
// ChatAgent is the only backend today. It owns:
//
//   - a ModelClient, built during Initialize and never replaced
//   - a Thread, the accumulated dialogue sent with every model call
//   - a fixed system instruction
//
// # Command Routing
//
// Before touching the model, ProcessMessage classifies the text with Classify.
// Matching is case-insensitive on the trimmed text and the first rule wins:
//
//	exit | salir | quit | adios  -> Exit          (farewell, no model call)
//	clear | limpiar              -> ClearHistory  (fresh thread)
//	/help                        -> Help          (usage string)
//	contains "hola"              -> Greeting      (fixed greeting)
//	anything else                -> Passthrough   (model call)
//
// Exact matches always win over the substring Greeting rule.
//
// # Errors
//
// Failures carry a Kind so callers can tell startup problems from per-message
// ones:
//
//	if errors.Is(err, agent.ErrConfiguration) { ... }
//
// Inference failures never leave ProcessMessage; they are logged and replaced
// by ReplyApology.
package agent
