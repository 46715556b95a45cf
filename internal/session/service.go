// ABOUTME: Service is the start/ask/stop facade every channel talks to
// ABOUTME: Command routing lives in the agent so all channels behave the same

package session

import (
	"context"
	"log/slog"

	"github.com/2389/foundry-agent/internal/agent"
)

// Service wraps one agent.Capability.
type Service struct {
	agent  agent.Capability
	logger *slog.Logger
}

// New creates a Service around capability.
func New(capability agent.Capability, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		agent:  capability,
		logger: logger.With("component", "session"),
	}
}

// Start initializes the agent. Callers that may race use a Guard instead.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Debug("starting session")
	if err := s.agent.Initialize(ctx); err != nil {
		return err
	}
	s.logger.Info("session started")
	return nil
}

// Ask hands text to the agent and returns its reply.
func (s *Service) Ask(ctx context.Context, text string) (string, error) {
	return s.agent.ProcessMessage(ctx, text)
}

// Stop releases the agent.
func (s *Service) Stop(ctx context.Context) {
	s.agent.Cleanup(ctx)
	s.logger.Info("session stopped")
}
