// ABOUTME: Azure OpenAI chat-completions client implementing agent.ModelClient
// ABOUTME: Authenticates with an Entra ID token credential scoped to the configured audience

package foundry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/2389/foundry-agent/internal/agent"
	"github.com/2389/foundry-agent/internal/config"
)

// ErrNoChoices is returned when the service answers without any completion.
var ErrNoChoices = errors.New("completion returned no choices")

// Client sends a thread to one Azure OpenAI deployment.
type Client struct {
	api        openai.Client
	deployment string
	logger     *slog.Logger
}

var _ agent.ModelClient = (*Client)(nil)

// New builds a Client for settings. Extra request options are applied after
// the Azure endpoint and credential options.
func New(settings config.AgentSettings, cred azcore.TokenCredential, logger *slog.Logger, opts ...option.RequestOption) (*Client, error) {
	if settings.Endpoint == "" || settings.Deployment == "" || settings.APIVersion == "" {
		return nil, fmt.Errorf("incomplete agent settings: endpoint=%q deployment=%q api_version=%q",
			settings.Endpoint, settings.Deployment, settings.APIVersion)
	}
	if cred == nil {
		return nil, errors.New("token credential is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	scope := settings.TokenScope
	if scope == "" {
		scope = config.DefaultTokenScope
	}

	reqOpts := []option.RequestOption{
		azure.WithEndpoint(settings.Endpoint, settings.APIVersion),
		azure.WithTokenCredential(scopedCredential{cred: cred, scope: scope}),
	}
	reqOpts = append(reqOpts, opts...)

	return &Client{
		api:        openai.NewClient(reqOpts...),
		deployment: settings.Deployment,
		logger:     logger.With("component", "foundry", "deployment", settings.Deployment),
	}, nil
}

// ClientFactory adapts New to agent.ClientFactory.
func ClientFactory(logger *slog.Logger, opts ...option.RequestOption) agent.ClientFactory {
	return func(_ context.Context, settings config.AgentSettings, cred azcore.TokenCredential) (agent.ModelClient, error) {
		c, err := New(settings, cred, logger, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Complete sends instructions, the prior turns and text, and returns the
// first choice's content.
func (c *Client) Complete(ctx context.Context, instructions string, history []agent.Turn, text string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.deployment),
		Messages: buildMessages(instructions, history, text),
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.logger.Debug("completion received",
		"id", resp.ID,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(instructions string, history []agent.Turn, text string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if instructions != "" {
		msgs = append(msgs, openai.SystemMessage(instructions))
	}
	for _, turn := range history {
		switch turn.Role {
		case agent.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(turn.Text))
		default:
			msgs = append(msgs, openai.UserMessage(turn.Text))
		}
	}
	return append(msgs, openai.UserMessage(text))
}

// scopedCredential forces the token audience regardless of what the caller asks for.
type scopedCredential struct {
	cred  azcore.TokenCredential
	scope string
}

func (s scopedCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	opts.Scopes = []string{s.scope}
	return s.cred.GetToken(ctx, opts)
}
