// ABOUTME: Model-client settings bound from the process environment
// ABOUTME: Endpoint, deployment and API version are required; the token scope has a default

package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// DefaultTokenScope is requested when AZURE_OPENAI_TOKEN_ENDPOINT is unset.
const DefaultTokenScope = "https://cognitiveservices.azure.com/.default"

// AgentSettings locate the Azure OpenAI deployment the agent talks to.
type AgentSettings struct {
	Endpoint    string `envconfig:"ENDPOINT_OPENAI"`
	EndpointAPI string `envconfig:"ENDPOINT_API"`
	Deployment  string `envconfig:"DEPLOYMENT_NAME"`
	APIVersion  string `envconfig:"API_VERSION"`
	TokenScope  string `envconfig:"AZURE_OPENAI_TOKEN_ENDPOINT"`
}

// LoadAgentSettings reads AgentSettings from the environment. It does not
// validate; callers decide when a missing value becomes fatal.
func LoadAgentSettings() (AgentSettings, error) {
	var s AgentSettings
	if err := envconfig.Process("", &s); err != nil {
		return AgentSettings{}, fmt.Errorf("reading agent environment: %w", err)
	}
	if s.Endpoint == "" {
		s.Endpoint = s.EndpointAPI
	}
	if s.TokenScope == "" {
		s.TokenScope = DefaultTokenScope
	}
	return s, nil
}

// Validate reports every missing required setting at once.
func (s AgentSettings) Validate() error {
	var missing []string
	if s.Endpoint == "" {
		missing = append(missing, "ENDPOINT_OPENAI/ENDPOINT_API")
	}
	if s.Deployment == "" {
		missing = append(missing, "DEPLOYMENT_NAME")
	}
	if s.APIVersion == "" {
		missing = append(missing, "API_VERSION")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
