// Package auth_tools exposes the authentication bootstrap tools: starting
// the Google OAuth flow for an account and completing it with the returned
// authorization code. These are the only tools that do not require an
// existing credential.
package auth_tools
