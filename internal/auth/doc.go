// Package auth performs per-call Google authentication for MCP tools.
//
// Tool implementations declare which Google service and OAuth scopes they
// need and are wrapped by Require (one service) or RequireMultiple (several
// services). On every invocation the wrapper resolves the ambient
// authentication state from the request context, decides which OAuth
// generation governs the call (legacy file tokens or the OAuth 2.1 session
// store), fetches and validates a credential, verifies the granted scopes
// against the declared requirements, and injects a credential-bound client
// handle into the wrapped operation. Token-refresh failures raised by the
// operation are translated into actionable re-authentication guidance.
package auth
