package google

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/services"
)

// ClientFactory builds service handles from session-store credentials. It
// implements auth.ClientFactory.
type ClientFactory struct {
	cfg *config.OAuth
}

// NewClientFactory creates a factory using the given OAuth client settings
// for token refresh.
func NewClientFactory(cfg *config.OAuth) *ClientFactory {
	return &ClientFactory{cfg: cfg}
}

// Build binds the credential to a service handle. Credentials carrying a
// refresh token get a refreshing token source; bare access tokens are used
// as-is until they expire.
func (f *ClientFactory) Build(ctx context.Context, serviceName, version string, cred *auth.Credential) (*services.Handle, error) {
	if cred == nil || cred.Token == nil {
		return nil, fmt.Errorf("cannot build %s client without a credential", serviceName)
	}

	var ts oauth2.TokenSource
	if cred.Token.RefreshToken != "" && f.cfg != nil && f.cfg.GoogleClientID != "" {
		conf := NewOAuthConfig(f.cfg, cred.Scopes)
		ts = conf.TokenSource(ctx, cred.Token)
	} else {
		ts = oauth2.StaticTokenSource(cred.Token)
	}

	client := oauth2.NewClient(ctx, ts)
	// Google API endpoints occasionally mishandle HTTP/2 streams on long
	// uploads; pin the transport to HTTP/1.1.
	if tr, ok := client.Transport.(*oauth2.Transport); ok {
		tr.Base = &http.Transport{ForceAttemptHTTP2: false}
	}

	return services.NewHandleWithClient(serviceName, version, cred.UserEmail, client), nil
}
