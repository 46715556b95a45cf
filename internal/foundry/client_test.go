// ABOUTME: Tests for the Azure OpenAI client against an httptest TLS server
// ABOUTME: Verifies deployment routing, bearer scope override and message assembly

package foundry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/foundry-agent/internal/agent"
	"github.com/2389/foundry-agent/internal/config"
)

type recordingCredential struct {
	mu     sync.Mutex
	scopes [][]string
}

func (c *recordingCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes = append(c.scopes, opts.Scopes)
	return azcore.AccessToken{Token: "entra-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type capturedRequest struct {
	path     string
	query    string
	auth     string
	model    string
	messages []wireMessage
}

func newCompletionServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload struct {
			Model    string        `json:"model"`
			Messages []wireMessage `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(raw, &payload))

		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.auth = r.Header.Get("Authorization")
		captured.model = payload.Model
		captured.messages = payload.Messages

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func testSettings(endpoint string) config.AgentSettings {
	return config.AgentSettings{
		Endpoint:   endpoint,
		Deployment: "gpt-4o",
		APIVersion: "2024-10-21",
		TokenScope: "https://ai.azure.com/.default",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const okCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "París."}}
  ],
  "usage": {"prompt_tokens": 12, "completion_tokens": 2, "total_tokens": 14}
}`

func TestComplete_SendsThreadToDeployment(t *testing.T) {
	srv, captured := newCompletionServer(t, http.StatusOK, okCompletion)
	cred := &recordingCredential{}

	client, err := New(testSettings(srv.URL), cred, quietLogger(),
		option.WithHTTPClient(srv.Client()),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)

	history := []agent.Turn{
		{Role: agent.RoleUser, Text: "hola"},
		{Role: agent.RoleAssistant, Text: "¡Hola!"},
	}
	reply, err := client.Complete(context.Background(), "Sé breve.", history, "¿Capital de Francia?")
	require.NoError(t, err)
	assert.Equal(t, "París.", reply)

	assert.True(t, strings.HasSuffix(captured.path, "/deployments/gpt-4o/chat/completions"), captured.path)
	assert.Contains(t, captured.query, "api-version=2024-10-21")
	assert.Equal(t, "Bearer entra-token", captured.auth)
	assert.Equal(t, []wireMessage{
		{Role: "system", Content: "Sé breve."},
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "¡Hola!"},
		{Role: "user", Content: "¿Capital de Francia?"},
	}, captured.messages)

	cred.mu.Lock()
	defer cred.mu.Unlock()
	require.NotEmpty(t, cred.scopes)
	for _, scopes := range cred.scopes {
		assert.Equal(t, []string{"https://ai.azure.com/.default"}, scopes)
	}
}

func TestComplete_ServiceError(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusTooManyRequests,
		`{"error": {"message": "rate limited", "type": "rate_limit", "code": "429"}}`)

	client, err := New(testSettings(srv.URL), &recordingCredential{}, quietLogger(),
		option.WithHTTPClient(srv.Client()),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "", nil, "pregunta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestComplete_NoChoices(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusOK,
		`{"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-4o", "choices": []}`)

	client, err := New(testSettings(srv.URL), &recordingCredential{}, quietLogger(),
		option.WithHTTPClient(srv.Client()),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "", nil, "pregunta")
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestNew_RejectsIncompleteSettings(t *testing.T) {
	settings := testSettings("https://example.openai.azure.com")
	settings.APIVersion = ""

	_, err := New(settings, &recordingCredential{}, nil)
	assert.Error(t, err)

	_, err = New(testSettings("https://example.openai.azure.com"), nil, nil)
	assert.Error(t, err)
}

func TestBuildMessages_OmitsEmptyInstructions(t *testing.T) {
	msgs := buildMessages("", nil, "solo")
	assert.Len(t, msgs, 1)
}

func TestScopedCredential_OverridesScopes(t *testing.T) {
	inner := &recordingCredential{}
	cred := scopedCredential{cred: inner, scope: "api://custom/.default"}

	_, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{
		Scopes: []string{"https://cognitiveservices.azure.com/.default"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"api://custom/.default"}}, inner.scopes)
}

func TestClientFactory(t *testing.T) {
	factory := ClientFactory(quietLogger())
	mc, err := factory(context.Background(), testSettings("https://example.openai.azure.com"), &recordingCredential{})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, mc)
}
