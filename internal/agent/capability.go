// ABOUTME: Capability is the contract every conversational backend satisfies
// ABOUTME: Also declares the model, credential, and transcript seams ChatAgent depends on

package agent

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/2389/foundry-agent/internal/config"
)

// Capability is a conversational backend. Initialize must succeed before
// ProcessMessage is called. Cleanup may be called any number of times.
type Capability interface {
	Initialize(ctx context.Context) error
	ProcessMessage(ctx context.Context, text string) (string, error)
	Cleanup(ctx context.Context)
}

var _ Capability = (*ChatAgent)(nil)

// ModelClient answers one user message given the accumulated thread.
type ModelClient interface {
	Complete(ctx context.Context, instructions string, history []Turn, text string) (string, error)
}

// ClientFactory builds the model client once settings and a credential exist.
type ClientFactory func(ctx context.Context, settings config.AgentSettings, cred azcore.TokenCredential) (ModelClient, error)

// CredentialFactory picks the credential for the current runtime.
type CredentialFactory func(ctx context.Context, cloud bool) (azcore.TokenCredential, error)

// Recorder persists exchanges for later inspection.
type Recorder interface {
	RecordExchange(ctx context.Context, threadID, command, userText, reply string) error
}
