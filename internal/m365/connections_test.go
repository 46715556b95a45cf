// ABOUTME: Tests for outbound connection selection
// ABOUTME: Covers rule ordering, wildcards, fallback and config errors

package m365

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/foundry-agent/internal/config"
)

func creds(tenant string) config.ConnectionConfig {
	return config.ConnectionConfig{ClientID: "id-" + tenant, ClientSecret: "secret", TenantID: tenant}
}

func TestConnectionManager_Resolve(t *testing.T) {
	cfg := config.M365Config{
		Connections: map[string]config.ConnectionConfig{
			config.DefaultConnectionName: creds("main"),
			"GOV":                        creds("gov"),
			"PARTNER":                    creds("partner"),
		},
		ConnectionsMap: []config.ConnectionRule{
			{ServiceURL: `^https://smba\.infra\.gov\.teams\.microsoft\.us/`, Connection: "GOV"},
			{Audience: "partner-app", Connection: "PARTNER"},
			{Audience: "*", ServiceURL: "*", Connection: config.DefaultConnectionName},
		},
	}
	m, err := NewConnectionManager(cfg, ConnectionOptions{})
	require.NoError(t, err)

	tests := []struct {
		name       string
		audience   string
		serviceURL string
		want       string
	}{
		{"gov service url", "app", "https://smba.infra.gov.teams.microsoft.us/x/", "GOV"},
		{"partner audience", "PARTNER-APP", "https://smba.trafficmanager.net/amer/", "PARTNER"},
		{"catch-all", "app", "https://smba.trafficmanager.net/amer/", config.DefaultConnectionName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := m.Resolve(tt.audience, tt.serviceURL)
			require.NotNil(t, conn)
			assert.Equal(t, tt.want, conn.Name)
		})
	}
}

func TestConnectionManager_Fallback(t *testing.T) {
	m, err := NewConnectionManager(config.M365Config{
		Connections: map[string]config.ConnectionConfig{"ZETA": creds("z"), "ALPHA": creds("a")},
	}, ConnectionOptions{})
	require.NoError(t, err)

	conn := m.Resolve("any", "https://x/")
	require.NotNil(t, conn)
	assert.Equal(t, "ALPHA", conn.Name)
	assert.Equal(t, []string{config.DefaultBotScope}, conn.Scopes)
}

func TestConnectionManager_NoConnections(t *testing.T) {
	m, err := NewConnectionManager(config.M365Config{Anonymous: true}, ConnectionOptions{})
	require.NoError(t, err)
	assert.Nil(t, m.Resolve("app", "https://x/"))
}

func TestConnectionManager_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.M365Config
	}{
		{"incomplete credentials", config.M365Config{
			Connections: map[string]config.ConnectionConfig{"A": {ClientID: "id"}},
		}},
		{"unknown connection", config.M365Config{
			Connections:    map[string]config.ConnectionConfig{"A": creds("a")},
			ConnectionsMap: []config.ConnectionRule{{Connection: "B"}},
		}},
		{"bad regex", config.M365Config{
			Connections:    map[string]config.ConnectionConfig{"A": creds("a")},
			ConnectionsMap: []config.ConnectionRule{{ServiceURL: "([", Connection: "A"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnectionManager(tt.cfg, ConnectionOptions{})
			assert.Error(t, err)
		})
	}
}
