// Package logging provides slog setup and shared attribute helpers so that
// log lines carry consistent keys (tool, service, session, user_hash) across
// the authentication layer and the tool handlers.
package logging
