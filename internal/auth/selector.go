package auth

import (
	"context"
	"log/slog"

	"workspacemcp/internal/config"
	"workspacemcp/internal/logging"
)

// useOAuth21 reports whether the OAuth 2.1 session-store flow governs this
// call. The decision order matters: an authenticated principal always wins
// over token-based detection, and token-based detection always wins over the
// configured heuristic. Reversing it would let an authenticated user that
// happens to lack middleware state fall through to the less reliable
// heuristic.
func (a *Authenticator) useOAuth21(ctx context.Context, rc RequestAuthContext, toolName string) bool {
	if !a.cfg.OAuth21Enabled {
		return false
	}

	// With global enablement on, an authenticated caller is unconditionally
	// routed to OAuth 2.1. There is no per-principal opt-out.
	if rc.Principal != "" {
		a.logger.Debug("oauth21 selected for authenticated user",
			logging.Tool(toolName), logging.UserHash(rc.Principal))
		return true
	}

	// Protocol-level auth may have validated a token even though middleware
	// state was not populated.
	if AccessTokenFromContext(ctx) != nil {
		a.logger.Debug("oauth21 selected from validated access token",
			logging.Tool(toolName))
		return true
	}

	params := map[string]string{}
	if rc.SessionID != "" {
		params["session_id"] = rc.SessionID
	}
	version := a.cfg.DetectOAuthVersion(params)
	a.logger.Debug("oauth version detected",
		logging.Tool(toolName), slog.String("detected", version))
	return version == config.VersionOAuth21
}

// useOAuth21Simple is the simplified selection used by the multi-service
// wrapper: it deliberately skips the token-presence fallback of the
// single-service path.
func (a *Authenticator) useOAuth21Simple(rc RequestAuthContext) bool {
	return a.cfg.OAuth21Enabled && rc.Principal != ""
}
