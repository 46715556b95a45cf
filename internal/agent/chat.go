// ABOUTME: ChatAgent is the Capability backed by an Azure OpenAI deployment
// ABOUTME: Routes commands locally and forwards everything else to the model with the live thread

package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/foundry-agent/internal/config"
	"github.com/2389/foundry-agent/internal/runtimeenv"
)

// DefaultInstructions is the system instruction bound to every thread.
const DefaultInstructions = "Eres un agente conversacional claro y conciso." +
	" Responde en espanol a menos que el usuario use otro idioma" +
	" y prioriza respuestas breves y accionables."

// Options wires a ChatAgent to its collaborators. NewCredential and NewClient
// are required; everything else has a default.
type Options struct {
	Instructions  string
	LoadSettings  func() (config.AgentSettings, error)
	IsCloud       func() bool
	NewCredential CredentialFactory
	NewClient     ClientFactory
	Recorder      Recorder
	Logger        *slog.Logger
}

// ChatAgent holds one model client and one live thread.
type ChatAgent struct {
	instructions  string
	loadSettings  func() (config.AgentSettings, error)
	isCloud       func() bool
	newCredential CredentialFactory
	newClient     ClientFactory
	recorder      Recorder
	logger        *slog.Logger

	mu     sync.Mutex
	client ModelClient
	thread *Thread
}

// NewChatAgent creates an uninitialized agent.
func NewChatAgent(opts Options) *ChatAgent {
	a := &ChatAgent{
		instructions:  opts.Instructions,
		loadSettings:  opts.LoadSettings,
		isCloud:       opts.IsCloud,
		newCredential: opts.NewCredential,
		newClient:     opts.NewClient,
		recorder:      opts.Recorder,
		logger:        opts.Logger,
	}
	if a.instructions == "" {
		a.instructions = DefaultInstructions
	}
	if a.loadSettings == nil {
		a.loadSettings = config.LoadAgentSettings
	}
	if a.isCloud == nil {
		a.isCloud = runtimeenv.IsCloud
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "agent")
	return a
}

// Initialize resolves settings, acquires a credential, builds the model client
// and opens a fresh thread. Missing settings fail before any credential work.
func (a *ChatAgent) Initialize(ctx context.Context) error {
	const op = "agent.Initialize"

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return newError(KindState, op, errors.New("already initialized"))
	}

	settings, err := a.loadSettings()
	if err != nil {
		return newError(KindConfiguration, op, err)
	}
	if err := settings.Validate(); err != nil {
		a.logger.Error("missing agent settings", "error", err)
		return newError(KindConfiguration, op, err)
	}
	if a.newCredential == nil || a.newClient == nil {
		return newError(KindConfiguration, op, errors.New("no model client wiring configured"))
	}

	cloud := a.isCloud()
	cred, err := a.newCredential(ctx, cloud)
	if err != nil {
		return newError(KindAuthentication, op, err)
	}
	a.logger.Debug("credential acquired", "cloud", cloud)

	client, err := a.newClient(ctx, settings, cred)
	if err != nil {
		return newError(KindConfiguration, op, err)
	}

	a.client = client
	a.thread = NewThread()
	a.logger.Info("agent ready",
		"deployment", settings.Deployment,
		"api_version", settings.APIVersion,
		"thread_id", a.thread.ID,
	)
	return nil
}

// ProcessMessage classifies text and answers it. Model failures become
// ReplyApology; the only error returned is KindState.
func (a *ChatAgent) ProcessMessage(ctx context.Context, text string) (string, error) {
	const op = "agent.ProcessMessage"

	client, thread := a.current()
	if client == nil {
		return "", newError(KindState, op, errors.New("called before Initialize"))
	}
	if strings.TrimSpace(text) == "" {
		return "", newError(KindState, op, errors.New("empty message"))
	}

	cmd := Classify(text)
	a.logger.Debug("processing message", "command", cmd.String(), "thread_id", thread.ID)

	var reply string
	switch cmd {
	case CommandExit:
		return ReplyFarewell, nil
	case CommandClearHistory:
		fresh := a.resetThread()
		a.logger.Info("thread cleared", "old_thread_id", thread.ID, "thread_id", fresh.ID)
		reply = ReplyCleared
	case CommandHelp:
		reply = ReplyHelp
	case CommandGreeting:
		reply = ReplyGreeting
	default:
		reply = a.complete(ctx, client, thread, text)
	}

	a.record(ctx, thread.ID, cmd, text, reply)
	return reply, nil
}

// Cleanup releases the client and thread. Safe on a never-started agent.
func (a *ChatAgent) Cleanup(ctx context.Context) {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.thread = nil
	a.mu.Unlock()

	if client == nil {
		return
	}
	if closer, ok := client.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("closing model client", "error", err)
		}
	}
	a.logger.Info("agent resources released")
}

// Thread returns the live thread, or nil before Initialize.
func (a *ChatAgent) Thread() *Thread {
	_, thread := a.current()
	return thread
}

func (a *ChatAgent) current() (ModelClient, *Thread) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client, a.thread
}

func (a *ChatAgent) resetThread() *Thread {
	fresh := NewThread()
	a.mu.Lock()
	a.thread = fresh
	a.mu.Unlock()
	return fresh
}

func (a *ChatAgent) complete(ctx context.Context, client ModelClient, thread *Thread, text string) string {
	reply, err := client.Complete(ctx, a.instructions, thread.Turns(), text)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("model returned an empty reply")
	}
	if err != nil {
		a.logger.Error("model call failed",
			"thread_id", thread.ID,
			"error", newError(KindInference, "agent.ProcessMessage", err),
		)
		return ReplyApology
	}

	thread.appendExchange(text, reply)
	return reply
}

func (a *ChatAgent) record(ctx context.Context, threadID string, cmd Command, text, reply string) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.RecordExchange(ctx, threadID, cmd.String(), text, reply); err != nil {
		a.logger.Warn("recording exchange", "thread_id", threadID, "error", err)
	}
}
