// Package session implements the in-memory OAuth 2.1 session store.
//
// The store holds Google credentials keyed by user email and binds MCP
// session ids to the identity they authenticated as. It is the enforcement
// point for session isolation: a session id can only retrieve credentials
// belonging to its own identity, and the authentication layer treats a nil
// result as access denied.
package session
