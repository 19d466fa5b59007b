package config

import (
	"os"
	"strconv"
)

// Transport names the server can be started with.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// OAuth version labels returned by DetectOAuthVersion.
const (
	VersionOAuth21 = "oauth21"
	VersionLegacy  = "oauth20"
)

// OAuth controls how the authentication layer chooses between the legacy
// file-token flow and the OAuth 2.1 session-store flow. The struct is
// immutable after startup.
type OAuth struct {
	// OAuth21Enabled globally enables the OAuth 2.1 session-store flow.
	// When false, every call uses the legacy flow regardless of context.
	OAuth21Enabled bool

	// Transport is the transport the server was started with.
	Transport string

	// GoogleClientID and GoogleClientSecret identify the OAuth client used
	// for both generations.
	GoogleClientID     string
	GoogleClientSecret string

	// BaseURL is the externally reachable base URL of the HTTP transport.
	BaseURL string
}

// LoadOAuthFromEnv fills unset fields from environment variables.
// Flags take precedence; env vars are the fallback.
func (c *OAuth) LoadOAuthFromEnv() {
	if c.GoogleClientID == "" {
		c.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.GoogleClientSecret == "" {
		c.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if v := os.Getenv("WORKSPACE_MCP_OAUTH21"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.OAuth21Enabled = enabled
		}
	}
}

// DetectOAuthVersion applies the configured heuristic to per-request
// parameters. It is consulted only when neither middleware state nor a
// validated access token settled the question: a request that carries a
// session id over the HTTP transport is assumed to have come through the
// OAuth 2.1 authorization layer.
func (c *OAuth) DetectOAuthVersion(params map[string]string) string {
	if !c.OAuth21Enabled {
		return VersionLegacy
	}
	if c.Transport == TransportStreamableHTTP {
		if _, ok := params["session_id"]; ok {
			return VersionOAuth21
		}
	}
	return VersionLegacy
}
