package auth

import (
	"context"
	"sync"

	"workspacemcp/internal/logging"
)

// contextKey is the type for request-context keys set by the transport.
type contextKey int

const (
	principalKey contextKey = iota
	mechanismKey
	sessionIDKey
	accessTokenKey
)

// RequestAuthContext is the ambient authentication state captured once at the
// start of a tool invocation. It is never mutated afterwards; the per-call
// value is authoritative for all authorization decisions.
type RequestAuthContext struct {
	// Principal is the authenticated user's email, empty when the request is
	// unauthenticated.
	Principal string

	// Mechanism tags how the principal was authenticated (e.g. "oauth21").
	Mechanism string

	// SessionID is an opaque correlation id tying the call to one logical
	// client session.
	SessionID string
}

// WithPrincipal returns a context carrying the authenticated principal and
// the mechanism that authenticated it. Set by the transport middleware after
// token validation.
func WithPrincipal(ctx context.Context, email, mechanism string) context.Context {
	ctx = context.WithValue(ctx, principalKey, email)
	return context.WithValue(ctx, mechanismKey, mechanism)
}

// WithSessionID returns a context carrying the session (correlation) id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithAccessToken returns a context carrying the validated protocol-level
// access token.
func WithAccessToken(ctx context.Context, token *AccessToken) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessTokenFromContext returns the validated access token for this request,
// or nil when the transport performed no token validation.
func AccessTokenFromContext(ctx context.Context) *AccessToken {
	token, _ := ctx.Value(accessTokenKey).(*AccessToken)
	return token
}

// lastSessionID is process-wide diagnostic state: the most recently observed
// session id, last-write-wins. It exists only so that logging outside a
// request path can name a session; it must never feed authorization
// decisions.
var (
	lastSessionIDMu sync.Mutex
	lastSessionID   string
)

func publishSessionID(id string) {
	lastSessionIDMu.Lock()
	defer lastSessionIDMu.Unlock()
	lastSessionID = id
}

// LastSessionID returns the most recently observed session id, for
// diagnostics only.
func LastSessionID() string {
	lastSessionIDMu.Lock()
	defer lastSessionIDMu.Unlock()
	return lastSessionID
}

// Resolve extracts the ambient authentication state for one tool invocation.
// Missing state is not an error: an all-empty context means unauthenticated,
// which downstream checks turn into an authentication failure. Resolve never
// fails.
func (a *Authenticator) Resolve(ctx context.Context, toolName string) RequestAuthContext {
	rc := RequestAuthContext{}
	if ctx == nil {
		return rc
	}

	if v, ok := ctx.Value(principalKey).(string); ok {
		rc.Principal = v
	}
	if v, ok := ctx.Value(mechanismKey).(string); ok {
		rc.Mechanism = v
	}
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		rc.SessionID = v
	}

	if rc.SessionID != "" {
		publishSessionID(rc.SessionID)
	}

	a.logger.Debug("resolved auth context",
		logging.Tool(toolName),
		logging.UserHash(rc.Principal),
		logging.Mechanism(rc.Mechanism),
		logging.Session(rc.SessionID),
	)
	return rc
}
