// Package resources exposes MCP resources describing the authenticated
// user's Google account.
package resources
