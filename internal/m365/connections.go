// ABOUTME: Named outbound credential sets and the rules that pick one per request
// ABOUTME: First matching audience/service URL rule wins, otherwise the default connection

package m365

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/2389/foundry-agent/internal/config"
)

// DefaultAuthorityURL is the Entra ID host tokens are requested from.
const DefaultAuthorityURL = "https://login.microsoftonline.com"

// Connection is one client-credentials identity used for outbound calls.
type Connection struct {
	Name   string
	Scopes []string
	tokens oauth2.TokenSource
	base   *http.Client
}

// Client returns an HTTP client that attaches this connection's bearer token.
func (c *Connection) Client(ctx context.Context) *http.Client {
	if c.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	}
	return oauth2.NewClient(ctx, c.tokens)
}

// Token returns a valid access token, fetching a new one when needed.
func (c *Connection) Token() (*oauth2.Token, error) {
	return c.tokens.Token()
}

type connectionRule struct {
	audience   string
	serviceURL *regexp.Regexp // nil matches any
	connection *Connection
}

func (r connectionRule) matches(audience, serviceURL string) bool {
	if r.audience != "" && r.audience != "*" && !strings.EqualFold(r.audience, audience) {
		return false
	}
	if r.serviceURL != nil && !r.serviceURL.MatchString(serviceURL) {
		return false
	}
	return true
}

// ConnectionOptions tune how tokens are acquired.
type ConnectionOptions struct {
	AuthorityURL string
	HTTPClient   *http.Client
}

// ConnectionManager resolves which connection authenticates a reply.
type ConnectionManager struct {
	connections map[string]*Connection
	rules       []connectionRule
	fallback    *Connection
}

// NewConnectionManager builds connections and rules from config. With no
// connections configured, Resolve returns nil and replies go out unauthenticated.
func NewConnectionManager(cfg config.M365Config, opts ConnectionOptions) (*ConnectionManager, error) {
	authority := strings.TrimRight(opts.AuthorityURL, "/")
	if authority == "" {
		authority = DefaultAuthorityURL
	}

	tokenCtx := context.Background()
	if opts.HTTPClient != nil {
		tokenCtx = context.WithValue(tokenCtx, oauth2.HTTPClient, opts.HTTPClient)
	}

	m := &ConnectionManager{connections: make(map[string]*Connection, len(cfg.Connections))}

	for name, cc := range cfg.Connections {
		if cc.ClientID == "" || cc.ClientSecret == "" || cc.TenantID == "" {
			return nil, fmt.Errorf("connection %s: client_id, client_secret and tenant_id are required", name)
		}
		scopes := cc.Scopes
		if len(scopes) == 0 {
			scopes = []string{config.DefaultBotScope}
		}
		ccfg := clientcredentials.Config{
			ClientID:     cc.ClientID,
			ClientSecret: cc.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", authority, cc.TenantID),
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		m.connections[name] = &Connection{
			Name:   name,
			Scopes: scopes,
			tokens: oauth2.ReuseTokenSource(nil, ccfg.TokenSource(tokenCtx)),
			base:   opts.HTTPClient,
		}
	}

	for i, r := range cfg.ConnectionsMap {
		conn, ok := m.connections[r.Connection]
		if !ok {
			return nil, fmt.Errorf("connections_map[%d]: unknown connection %q", i, r.Connection)
		}
		rule := connectionRule{audience: r.Audience, connection: conn}
		if r.ServiceURL != "" && r.ServiceURL != "*" {
			re, err := regexp.Compile(r.ServiceURL)
			if err != nil {
				return nil, fmt.Errorf("connections_map[%d]: %w", i, err)
			}
			rule.serviceURL = re
		}
		m.rules = append(m.rules, rule)
	}

	m.fallback = m.connections[config.DefaultConnectionName]
	if m.fallback == nil && len(m.connections) > 0 {
		// Deterministic pick when the default name is absent.
		names := make([]string, 0, len(m.connections))
		for name := range m.connections {
			names = append(names, name)
		}
		sort.Strings(names)
		m.fallback = m.connections[names[0]]
	}
	return m, nil
}

// Resolve returns the connection for a reply, or nil when none are configured.
func (m *ConnectionManager) Resolve(audience, serviceURL string) *Connection {
	for _, r := range m.rules {
		if r.matches(audience, serviceURL) {
			return r.connection
		}
	}
	return m.fallback
}

// Connection returns a connection by name.
func (m *ConnectionManager) Connection(name string) (*Connection, bool) {
	c, ok := m.connections[name]
	return c, ok
}
