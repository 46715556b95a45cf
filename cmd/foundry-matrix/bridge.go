// ABOUTME: Matrix bridge core for foundry-matrix
// ABOUTME: Routes room messages through the shared channel rules and posts formatted replies

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// errorReply is posted when the session cannot answer at all.
const errorReply = "Ocurrió un error inesperado. Intenta de nuevo."

// typingTimeout is the duration the typing indicator shows (30 seconds).
const typingTimeout = 30 * time.Second

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 10 * time.Second

// Responder produces replies. channel.Router satisfies it.
type Responder interface {
	Handle(ctx context.Context, text string) (string, error)
}

// roomClient is the slice of the Matrix client API the bridge writes with.
type roomClient interface {
	SendReply(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error
	SetTyping(ctx context.Context, roomID id.RoomID, typing bool, timeout time.Duration) error
}

// mautrixRooms adapts *mautrix.Client to roomClient.
type mautrixRooms struct {
	client *mautrix.Client
}

func (m mautrixRooms) SendReply(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
	_, err := m.client.SendMessageEvent(ctx, roomID, event.EventMessage, content)
	return err
}

func (m mautrixRooms) SetTyping(ctx context.Context, roomID id.RoomID, typing bool, timeout time.Duration) error {
	_, err := m.client.UserTyping(ctx, roomID, typing, timeout)
	return err
}

// Bridge connects Matrix rooms to the agent session.
type Bridge struct {
	config    *Config
	matrix    *mautrix.Client
	rooms     roomClient
	responder Responder
	markdown  goldmark.Markdown
	logger    *slog.Logger

	// Track rooms we're actively processing to avoid duplicate handling
	processing sync.Map
	inflight   sync.WaitGroup

	// ctx is the parent context for message processing goroutines
	ctx context.Context
}

// NewBridge creates a new Matrix bridge.
func NewBridge(cfg *Config, responder Responder, logger *slog.Logger) (*Bridge, error) {
	client, err := mautrix.NewClient(cfg.Matrix.Homeserver, id.UserID(cfg.Matrix.UserID), cfg.Matrix.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}
	b := newBridge(cfg, mautrixRooms{client: client}, responder, logger)
	b.matrix = client
	return b, nil
}

func newBridge(cfg *Config, rooms roomClient, responder Responder, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		config:    cfg,
		rooms:     rooms,
		responder: responder,
		markdown:  goldmark.New(),
		logger:    logger.With("component", "matrix"),
		ctx:       context.Background(),
	}
}

// Run starts the bridge and blocks until context is cancelled. In-flight
// replies are allowed to finish before it returns.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting matrix bridge",
		"homeserver", b.config.Matrix.Homeserver,
		"user_id", b.config.Matrix.UserID,
	)

	var cancel context.CancelFunc
	b.ctx, cancel = context.WithCancel(ctx)
	defer cancel()
	defer b.inflight.Wait()

	syncer, ok := b.matrix.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", b.matrix.Syncer)
	}
	syncer.OnEventType(event.EventMessage, b.handleMessageEvent)

	// Skip the backlog; only messages sent while the bridge runs are answered.
	syncer.OnSync(b.matrix.DontProcessOldEvents)

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- b.matrix.SyncWithContext(b.ctx)
	}()

	b.logger.Info("matrix bridge running")

	select {
	case <-ctx.Done():
		b.logger.Info("shutting down matrix bridge")
		cancel()
		return nil
	case err := <-syncErr:
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// handleMessageEvent processes incoming Matrix messages.
func (b *Bridge) handleMessageEvent(_ context.Context, evt *event.Event) {
	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok {
		return
	}

	text, ok := b.accept(evt.Sender, evt.RoomID, content)
	if !ok {
		return
	}

	b.logger.Info("received message",
		"room", evt.RoomID.String(),
		"sender", evt.Sender.String(),
		"content", truncate(text, 50),
	)

	// Process message in goroutine to not block sync
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.processMessage(b.ctx, evt.RoomID, text)
	}()
}

// accept applies the bridge filters and returns the text to route.
func (b *Bridge) accept(sender id.UserID, roomID id.RoomID, content *event.MessageEventContent) (string, bool) {
	if sender == id.UserID(b.config.Matrix.UserID) {
		return "", false
	}
	if content.MsgType != event.MsgText {
		return "", false
	}
	if !b.config.Bridge.isRoomAllowed(roomID.String()) {
		b.logger.Debug("ignoring message from non-allowed room", "room", roomID.String())
		return "", false
	}

	text := content.Body
	if prefix := b.config.Bridge.CommandPrefix; prefix != "" {
		if !strings.HasPrefix(text, prefix) {
			return "", false
		}
		text = strings.TrimPrefix(text, prefix)
	}
	// Empty text still goes to the router, which answers it.
	return strings.TrimSpace(text), true
}

// processMessage asks the session and posts the reply.
func (b *Bridge) processMessage(ctx context.Context, roomID id.RoomID, text string) {
	roomStr := roomID.String()

	if _, loaded := b.processing.LoadOrStore(roomStr, true); loaded {
		b.logger.Debug("already processing message in room, dropping", "room", roomStr)
		return
	}
	defer b.processing.Delete(roomStr)

	if b.config.Bridge.TypingIndicator {
		b.setTyping(roomID, true)
		defer b.setTyping(roomID, false)
	}

	reply, err := b.responder.Handle(ctx, text)
	if err != nil {
		b.logger.Error("session failed", "room", roomStr, "error", err)
		reply = errorReply
	}

	b.logger.Info("sending response", "room", roomStr, "length", len(reply))
	b.sendMessage(roomID, reply)
}

// render builds a text message with an HTML body rendered from markdown.
func (b *Bridge) render(text string) *event.MessageEventContent {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    text,
	}
	var html bytes.Buffer
	if err := b.markdown.Convert([]byte(text), &html); err != nil {
		b.logger.Warn("failed to render markdown, sending plain text", "error", err)
		return content
	}
	content.Format = event.FormatHTML
	content.FormattedBody = strings.TrimSpace(html.String())
	return content
}

// setTyping sends typing indicator to room.
func (b *Bridge) setTyping(roomID id.RoomID, typing bool) {
	var timeout time.Duration
	if typing {
		timeout = typingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()
	if err := b.rooms.SetTyping(ctx, roomID, typing, timeout); err != nil {
		b.logger.Debug("failed to set typing indicator", "room", roomID.String(), "error", err)
	}
}

// sendMessage sends a formatted message to a room.
func (b *Bridge) sendMessage(roomID id.RoomID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := b.rooms.SendReply(ctx, roomID, b.render(text)); err != nil {
		b.logger.Error("failed to send message", "room", roomID.String(), "error", err)
	}
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
