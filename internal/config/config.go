// ABOUTME: Configuration loading and parsing for foundry-agent
// ABOUTME: Optional YAML file with ${VAR} expansion, filled in from process environment and defaults

package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the config file nor the environment sets a value.
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 3978
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultConnectionName    = "SERVICE_CONNECTION"
	DefaultOpenIDMetadataURL = "https://login.botframework.com/v1/.well-known/openidconfiguration"
	DefaultIssuer            = "https://api.botframework.com"
	DefaultBotScope          = "https://api.botframework.com/.default"
)

// Config represents the complete foundry-agent configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database"`
	M365      M365Config      `yaml:"m365"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the webhook listener settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// TailscaleConfig exposes the webhook through a tsnet node instead of a local port
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
	Funnel    bool   `yaml:"funnel"` // public HTTPS on :443, needed for Bot Framework delivery
}

// DatabaseConfig holds the transcript ledger location. Empty disables recording.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// M365Config holds Bot Framework channel credentials and routing
type M365Config struct {
	AppID       string `yaml:"app_id"`
	AppPassword string `yaml:"app_password"`
	TenantID    string `yaml:"tenant_id"`

	// Anonymous disables inbound token checks (Bot Framework Emulator).
	Anonymous bool `yaml:"anonymous"`
	// JWTSecret switches inbound checks to HS256 shared-secret tokens.
	JWTSecret         string `yaml:"jwt_secret"`
	OpenIDMetadataURL string `yaml:"openid_metadata_url"`
	Issuer            string `yaml:"issuer"`

	Connections    map[string]ConnectionConfig `yaml:"connections"`
	ConnectionsMap []ConnectionRule            `yaml:"connections_map"`
}

// ConnectionConfig is one set of outbound client credentials
type ConnectionConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TenantID     string   `yaml:"tenant_id"`
	Scopes       []string `yaml:"scopes"`
}

// ConnectionRule picks a connection by audience and service URL pattern
type ConnectionRule struct {
	Audience   string `yaml:"audience"`
	ServiceURL string `yaml:"service_url"`
	Connection string `yaml:"connection"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration at path. An empty path skips the file and builds
// the configuration from the environment alone.
func Load(path string) (*Config, error) {
	return load(path, (*Config).Validate)
}

// LoadLocal is Load for the commands that never talk to the Bot Framework
// (cli, history): m365 credentials are not required.
func LoadLocal(path string) (*Config, error) {
	return load(path, (*Config).validateCommon)
}

func load(path string, validate func(*Config) error) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expandedData := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvironment(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// Unset variables expand to an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// applyEnvironment fills fields the file left empty from the variables the
// Bot Framework hosting samples use.
func applyEnvironment(cfg *Config, getenv func(string) string) error {
	if cfg.Server.Host == "" {
		cfg.Server.Host = getenv("AGENT_HOST")
	}
	if cfg.Server.Port == 0 {
		if raw := getenv("PORT"); raw != "" {
			port, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("parsing PORT %q: %w", raw, err)
			}
			cfg.Server.Port = port
		}
	}

	if cfg.M365.AppID == "" {
		cfg.M365.AppID = getenv("MICROSOFT_APP_ID")
	}
	if cfg.M365.AppPassword == "" {
		cfg.M365.AppPassword = getenv("MICROSOFT_APP_PASSWORD")
	}
	if cfg.M365.TenantID == "" {
		cfg.M365.TenantID = getenv("MICROSOFT_APP_TENANTID")
	}
	if cfg.Tailscale.AuthKey == "" {
		cfg.Tailscale.AuthKey = getenv("TS_AUTHKEY")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.M365.OpenIDMetadataURL == "" {
		cfg.M365.OpenIDMetadataURL = DefaultOpenIDMetadataURL
	}
	if cfg.M365.Issuer == "" {
		cfg.M365.Issuer = DefaultIssuer
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	// The app registration doubles as the default outbound connection.
	if len(cfg.M365.Connections) == 0 && cfg.M365.AppID != "" {
		cfg.M365.Connections = map[string]ConnectionConfig{
			DefaultConnectionName: {
				ClientID:     cfg.M365.AppID,
				ClientSecret: cfg.M365.AppPassword,
				TenantID:     cfg.M365.TenantID,
			},
		}
	}
	for name, conn := range cfg.M365.Connections {
		if len(conn.Scopes) == 0 {
			conn.Scopes = []string{DefaultBotScope}
			cfg.M365.Connections[name] = conn
		}
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	if !c.M365.Anonymous {
		if c.M365.AppID == "" {
			return fmt.Errorf("m365.app_id is required (or set MICROSOFT_APP_ID)")
		}
		if c.M365.AppPassword == "" {
			return fmt.Errorf("m365.app_password is required (or set MICROSOFT_APP_PASSWORD)")
		}
		if c.M365.TenantID == "" {
			return fmt.Errorf("m365.tenant_id is required (or set MICROSOFT_APP_TENANTID)")
		}
	}

	for i, rule := range c.M365.ConnectionsMap {
		if _, ok := c.M365.Connections[rule.Connection]; !ok {
			return fmt.Errorf("m365.connections_map[%d] references unknown connection %q", i, rule.Connection)
		}
		if rule.ServiceURL != "" && rule.ServiceURL != "*" {
			if _, err := regexp.Compile(rule.ServiceURL); err != nil {
				return fmt.Errorf("m365.connections_map[%d].service_url: %w", i, err)
			}
		}
	}

	return nil
}

func (c *Config) validateCommon() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	if cfg.Server.ShutdownTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	return nil
}
