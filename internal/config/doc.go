// Package config handles configuration loading for foundry-agent.
//
// # Overview
//
// Two sources feed the process:
//
//   - Config: listener, Bot Framework credentials, transcript database,
//     tailscale and logging. Loaded from an optional YAML file, then filled from
//     the environment, then from defaults.
//   - AgentSettings: the Azure OpenAI deployment, read from the environment only
//     with envconfig.
//
// # Configuration File
//
// Location (first match):
//
//  1. --config flag
//  2. FOUNDRY_AGENT_CONFIG environment variable
//  3. none: environment and defaults only
//
// # Environment Variable Expansion
//
// Values can reference environment variables:
//
//	m365:
//	  app_password: "${MICROSOFT_APP_PASSWORD}"
//
// # Environment Fallbacks
//
// Fields left empty by the file are read from:
//
//	AGENT_HOST               server.host      (default 0.0.0.0)
//	PORT                     server.port      (default 3978)
//	MICROSOFT_APP_ID         m365.app_id
//	MICROSOFT_APP_PASSWORD   m365.app_password
//	MICROSOFT_APP_TENANTID   m365.tenant_id
//	TS_AUTHKEY               tailscale.auth_key
//
// # Outbound Connections
//
// When m365.connections is empty the app registration becomes the single
// SERVICE_CONNECTION. Rules in m365.connections_map are checked in order:
//
//	m365:
//	  connections:
//	    SERVICE_CONNECTION: {client_id: "...", client_secret: "...", tenant_id: "..."}
//	    GRAPH_CONNECTION:   {client_id: "...", client_secret: "...", tenant_id: "...",
//	                         scopes: ["https://graph.microsoft.com/.default"]}
//	  connections_map:
//	    - service_url: "^https://graph\\.microsoft\\.com/.*$"
//	      connection: GRAPH_CONNECTION
//
// # Agent Settings
//
//	ENDPOINT_OPENAI (or ENDPOINT_API)   required
//	DEPLOYMENT_NAME                     required
//	API_VERSION                         required
//	AZURE_OPENAI_TOKEN_ENDPOINT         optional token scope
package config
