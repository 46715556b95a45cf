// ABOUTME: Posts reply activities back to the Bot Framework connector service
// ABOUTME: Each reply is authenticated with the connection resolved for its service URL

package m365

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender delivers a reply for an inbound activity.
type Sender interface {
	SendReply(ctx context.Context, inbound, reply *Activity, audience string) error
}

// Connector implements Sender against the v3 conversations API.
type Connector struct {
	connections *ConnectionManager
	plain       *http.Client
	logger      *slog.Logger
}

var _ Sender = (*Connector)(nil)

// NewConnector creates a Connector. plain is used when no connection applies
// (emulator mode); nil means a default client with a 30s timeout.
func NewConnector(connections *ConnectionManager, plain *http.Client, logger *slog.Logger) *Connector {
	if plain == nil {
		plain = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		connections: connections,
		plain:       plain,
		logger:      logger.With("component", "m365.connector"),
	}
}

// ReplyURL is {serviceUrl}/v3/conversations/{conversationId}/activities/{activityId}.
func ReplyURL(inbound *Activity) (string, error) {
	if inbound.ServiceURL == "" {
		return "", fmt.Errorf("activity has no serviceUrl")
	}
	if inbound.Conversation.ID == "" {
		return "", fmt.Errorf("activity has no conversation id")
	}
	base, err := url.Parse(strings.TrimRight(inbound.ServiceURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing serviceUrl: %w", err)
	}
	if base.Scheme != "https" && base.Scheme != "http" {
		return "", fmt.Errorf("serviceUrl scheme %q not supported", base.Scheme)
	}

	path := "/v3/conversations/" + url.PathEscape(inbound.Conversation.ID) + "/activities"
	if inbound.ID != "" {
		path += "/" + url.PathEscape(inbound.ID)
	}
	return base.String() + path, nil
}

// SendReply posts reply to the conversation of inbound.
func (c *Connector) SendReply(ctx context.Context, inbound, reply *Activity, audience string) error {
	target, err := ReplyURL(inbound)
	if err != nil {
		return err
	}

	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encoding reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.plain
	connName := "none"
	if c.connections != nil {
		if conn := c.connections.Resolve(audience, inbound.ServiceURL); conn != nil {
			client = conn.Client(ctx)
			connName = conn.Name
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("posting reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("posting reply: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("reply delivered",
		"conversation_id", inbound.Conversation.ID,
		"reply_to", inbound.ID,
		"connection", connName,
	)
	return nil
}
