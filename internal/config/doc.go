// Package config holds process-wide configuration for the Workspace MCP
// server. The OAuth value is a read-only snapshot initialized once at startup
// and passed explicitly to the authentication layer, so generation selection
// stays pure and testable.
package config
