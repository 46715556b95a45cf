// Package session owns the agent lifecycle for the channels.
//
// Service is a thin start/ask/stop facade over one agent.Capability. The CLI
// drives it directly: Start once, Ask per line, Stop on the way out.
//
// Guard is for channels without a boot phase, such as the webhook, where the
// first requests may arrive together:
//
//	guard := session.NewGuard(session.New(chatAgent, logger))
//	reply, err := guard.Ask(ctx, text) // starts the agent on first use
//
// Exactly one caller runs Start; the rest wait for it and then proceed. Once
// started, Ask takes no lock.
package session
