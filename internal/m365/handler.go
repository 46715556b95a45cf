// ABOUTME: HTTP handler for the Bot Framework messaging endpoint
// ABOUTME: Decodes activities, drops redeliveries, and replies through the connector

package m365

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/2389/foundry-agent/internal/auth"
	"github.com/2389/foundry-agent/internal/dedupe"
)

const maxActivityBytes = 1 << 20

// Responder produces chat replies. channel.Router satisfies it.
type Responder interface {
	Welcome() string
	Handle(ctx context.Context, text string) (string, error)
}

// Handler serves POST /api/messages.
type Handler struct {
	responder Responder
	sender    Sender
	filter    *dedupe.Filter
	logger    *slog.Logger
}

// NewHandler creates a Handler. filter may be nil to disable redelivery checks.
func NewHandler(responder Responder, sender Sender, filter *dedupe.Filter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		responder: responder,
		sender:    sender,
		filter:    filter,
		logger:    logger.With("component", "m365"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		// Platform liveness probe.
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var activity Activity
	dec := json.NewDecoder(io.LimitReader(r.Body, maxActivityBytes))
	if err := dec.Decode(&activity); err != nil {
		h.logger.Warn("invalid activity payload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid activity payload")
		return
	}
	if activity.Type == "" {
		writeError(w, http.StatusBadRequest, "activity type is required")
		return
	}

	ctx := r.Context()
	audience := ""
	if ac := auth.FromContext(ctx); ac != nil {
		if ac.ServiceURL != "" && normalizeServiceURL(ac.ServiceURL) != normalizeServiceURL(activity.ServiceURL) {
			h.logger.Warn("serviceUrl does not match token claim",
				"claim", ac.ServiceURL,
				"activity", activity.ServiceURL,
			)
			writeError(w, http.StatusForbidden, "serviceUrl mismatch")
			return
		}
		if len(ac.Audience) > 0 {
			audience = ac.Audience[0]
		}
	}

	logger := h.logger.With(
		"activity_type", activity.Type,
		"activity_id", activity.ID,
		"conversation_id", activity.Conversation.ID,
	)

	key := ""
	if h.filter != nil && activity.ID != "" {
		key = dedupe.Key(activity.ChannelID, activity.Conversation.ID, activity.ID)
		if h.filter.Seen(key) {
			logger.Debug("dropping redelivered activity")
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	status, err := h.dispatch(ctx, &activity, audience)
	if err != nil {
		// Let the platform's retry through.
		if key != "" {
			h.filter.Forget(key)
		}
		logger.Error("activity failed", "error", err)
		writeError(w, status, http.StatusText(status))
		return
	}
	w.WriteHeader(status)
}

// dispatch handles one activity and returns the status to answer with.
func (h *Handler) dispatch(ctx context.Context, activity *Activity, audience string) (int, error) {
	var text string
	switch activity.Type {
	case ActivityTypeMessage:
		reply, err := h.responder.Handle(ctx, activity.Text)
		if err != nil {
			return http.StatusInternalServerError, err
		}
		text = reply
	case ActivityTypeConversationUpdate:
		if len(activity.JoinedMembers()) == 0 {
			return http.StatusOK, nil
		}
		text = h.responder.Welcome()
	default:
		h.logger.Debug("ignoring activity", "activity_type", activity.Type)
		return http.StatusOK, nil
	}

	if err := h.sender.SendReply(ctx, activity, activity.Reply(text), audience); err != nil {
		return http.StatusBadGateway, err
	}
	return http.StatusOK, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
