package auth

import (
	"context"

	"golang.org/x/oauth2"

	"workspacemcp/internal/services"
)

// Credential is an authorized ability to call Google APIs on behalf of one
// principal. It is consumed exactly once per call to build a client handle
// and is never cached by this package; caching, if any, is the store's
// concern.
type Credential struct {
	// Token is the OAuth token material, including refresh token when the
	// store holds one.
	Token *oauth2.Token

	// UserEmail is the principal the credential belongs to.
	UserEmail string

	// Scopes are the granted OAuth scopes. May be empty when the store did
	// not record them; the acquirer then falls back per generation rules.
	Scopes []string
}

// AccessToken is a validated protocol-level bearer token as exposed by the
// HTTP authorization layer.
type AccessToken struct {
	// Raw is the bearer token string.
	Raw string

	// Claims are the token's verified claims; may contain "email".
	Claims map[string]any

	// Scopes are the scopes the token itself advertises.
	Scopes []string
}

// EmailClaim returns the token's email claim, or "" when absent.
func (t *AccessToken) EmailClaim() string {
	if t == nil || t.Claims == nil {
		return ""
	}
	email, _ := t.Claims["email"].(string)
	return email
}

// SessionStore is the OAuth 2.1 session store consulted when no
// protocol-level token is available. The store is the enforcement point for
// session isolation: a session id may only retrieve credentials belonging to
// the identity it authenticated as.
type SessionStore interface {
	// GetCredentialsWithValidation returns the credential for
	// requestedUserEmail after validating the session's entitlement. A nil
	// return means access denied, not "not found".
	GetCredentialsWithValidation(requestedUserEmail, sessionID, authTokenEmail string, allowRecentAuth bool) *Credential
}

// TokenExchanger exchanges a validated protocol-level access token for a full
// Google credential, binding token, identity and session id together. Nil
// exchanger means no credential-issuing provider is configured.
type TokenExchanger interface {
	// EnsureSessionFromAccessToken returns the credential for the token, or
	// nil when no credential can be built from it.
	EnsureSessionFromAccessToken(token *AccessToken, email, sessionID string) *Credential
}

// LegacyBroker resolves credentials through the legacy OAuth 2.0 flow. Its
// contract is opaque to this package beyond "returns a handle and the
// principal it authorized, or fails".
type LegacyBroker interface {
	GetAuthenticatedService(ctx context.Context, serviceName, version, toolName, userEmail string, requiredScopes []string, sessionID string) (*services.Handle, string, error)
}

// ClientFactory builds a credential-bound client handle for one
// service/version pair.
type ClientFactory interface {
	Build(ctx context.Context, serviceName, version string, cred *Credential) (*services.Handle, error)
}
