// ABOUTME: Tests for the Bot Framework messaging handler
// ABOUTME: Uses a fake responder and sender to check dispatch, dedupe and error statuses

package m365

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/foundry-agent/internal/auth"
	"github.com/2389/foundry-agent/internal/dedupe"
)

type fakeResponder struct {
	mu    sync.Mutex
	texts []string
	reply string
	err   error
}

func (f *fakeResponder) Welcome() string { return "bienvenido" }

func (f *fakeResponder) Handle(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.reply, f.err
}

type sentReply struct {
	inbound  *Activity
	reply    *Activity
	audience string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentReply
	err  error
}

func (f *fakeSender) SendReply(_ context.Context, inbound, reply *Activity, audience string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentReply{inbound: inbound, reply: reply, audience: audience})
	return nil
}

const messageBody = `{
	"type": "message",
	"id": "act-1",
	"channelId": "msteams",
	"serviceUrl": "https://smba.trafficmanager.net/amer/",
	"from": {"id": "user-1", "name": "Ana"},
	"recipient": {"id": "bot-1", "name": "Agente"},
	"conversation": {"id": "conv-1"},
	"text": "hola"
}`

func post(t *testing.T, h http.Handler, body string, ctx context.Context) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Probe(t *testing.T) {
	h := NewHandler(&fakeResponder{}, &fakeSender{}, nil, nil)

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/messages", nil))
		assert.Equal(t, http.StatusOK, rec.Code, method)
		assert.Empty(t, rec.Body.String(), method)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/messages", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_Message(t *testing.T) {
	responder := &fakeResponder{reply: "¡Hola!"}
	sender := &fakeSender{}
	h := NewHandler(responder, sender, nil, nil)

	rec := post(t, h, messageBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"hola"}, responder.texts)
	require.Len(t, sender.sent, 1)
	reply := sender.sent[0].reply
	assert.Equal(t, ActivityTypeMessage, reply.Type)
	assert.Equal(t, "¡Hola!", reply.Text)
	assert.Equal(t, "act-1", reply.ReplyToID)
	assert.Equal(t, "bot-1", reply.From.ID)
	assert.Equal(t, "user-1", reply.Recipient.ID)
	assert.Equal(t, "conv-1", reply.Conversation.ID)
}

func TestHandler_BadPayload(t *testing.T) {
	h := NewHandler(&fakeResponder{}, &fakeSender{}, nil, nil)

	assert.Equal(t, http.StatusBadRequest, post(t, h, "{not json", nil).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"id":"x"}`, nil).Code)
}

func TestHandler_ConversationUpdate(t *testing.T) {
	tests := []struct {
		name      string
		members   string
		wantSends int
	}{
		{"user joins", `[{"id":"user-1"}]`, 1},
		{"bot joins", `[{"id":"bot-1"}]`, 0},
		{"both join", `[{"id":"bot-1"},{"id":"user-1"}]`, 1},
		{"nobody", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			h := NewHandler(&fakeResponder{}, sender, nil, nil)

			body := `{"type":"conversationUpdate","id":"u-1","serviceUrl":"https://smba.example/",` +
				`"recipient":{"id":"bot-1"},"conversation":{"id":"conv-1"},"membersAdded":` + tt.members + `}`
			rec := post(t, h, body, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, sender.sent, tt.wantSends)
			if tt.wantSends > 0 {
				assert.Equal(t, "bienvenido", sender.sent[0].reply.Text)
			}
		})
	}
}

func TestHandler_IgnoresOtherTypes(t *testing.T) {
	responder := &fakeResponder{}
	sender := &fakeSender{}
	h := NewHandler(responder, sender, nil, nil)

	rec := post(t, h, `{"type":"typing","id":"t-1","conversation":{"id":"conv-1"}}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, responder.texts)
	assert.Empty(t, sender.sent)
}

func TestHandler_DropsRedelivery(t *testing.T) {
	responder := &fakeResponder{reply: "ok"}
	sender := &fakeSender{}
	h := NewHandler(responder, sender, dedupe.New(0, 0), nil)

	assert.Equal(t, http.StatusOK, post(t, h, messageBody, nil).Code)
	assert.Equal(t, http.StatusOK, post(t, h, messageBody, nil).Code)

	assert.Len(t, responder.texts, 1)
	assert.Len(t, sender.sent, 1)
}

func TestHandler_SendFailureAllowsRetry(t *testing.T) {
	responder := &fakeResponder{reply: "ok"}
	sender := &fakeSender{err: errors.New("connector down")}
	h := NewHandler(responder, sender, dedupe.New(0, 0), nil)

	rec := post(t, h, messageBody, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	sender.err = nil
	rec = post(t, h, messageBody, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, responder.texts, 2)
	assert.Len(t, sender.sent, 1)
}

func TestHandler_ResponderFailure(t *testing.T) {
	responder := &fakeResponder{err: errors.New("start failed")}
	sender := &fakeSender{}
	h := NewHandler(responder, sender, nil, nil)

	rec := post(t, h, messageBody, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, sender.sent)
}

func TestHandler_ServiceURLClaim(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(&fakeResponder{reply: "ok"}, sender, nil, nil)

	matching := auth.WithAuth(context.Background(), &auth.AuthContext{
		Audience:   []string{"app-123"},
		ServiceURL: "https://SMBA.trafficmanager.net/amer",
	})
	rec := post(t, h, messageBody, matching)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "app-123", sender.sent[0].audience)

	mismatched := auth.WithAuth(context.Background(), &auth.AuthContext{
		ServiceURL: "https://evil.example/",
	})
	rec = post(t, h, messageBody, mismatched)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, sender.sent, 1)
}
