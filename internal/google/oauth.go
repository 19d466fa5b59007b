package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
)

// OOB is the out-of-band redirect used by the legacy flow on stdio, where no
// HTTP callback endpoint exists.
const OOB = "urn:ietf:wg:oauth:2.0:oob"

// DefaultAuthScopes is the scope set requested when an authentication flow is
// started without an explicit scope list. It covers the common read paths of
// the registered services; tools needing more declare their own groups.
var DefaultAuthScopes = append(append([]string(nil), auth.BaseScopes...),
	auth.ScopeGmailReadonly,
	auth.ScopeGmailSend,
	auth.ScopeDriveReadonly,
	auth.ScopeDriveFile,
	auth.ScopeCalendarReadonly,
	auth.ScopeCalendarEvents,
	auth.ScopeDocsReadonly,
	auth.ScopeSheetsReadonly,
	auth.ScopeTasks,
	auth.ScopeContactsReadonly,
)

// NewOAuthConfig builds the oauth2 client configuration for the given scopes.
// The redirect URL depends on the transport: HTTP deployments get a callback
// under the configured base URL, stdio falls back to out-of-band.
func NewOAuthConfig(cfg *config.OAuth, scopes []string) *oauth2.Config {
	redirect := OOB
	if cfg.Transport == config.TransportStreamableHTTP && cfg.BaseURL != "" {
		redirect = cfg.BaseURL + "/oauth2callback"
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  redirect,
		Scopes:       scopes,
	}
}

// AuthURL returns the consent URL for the legacy flow. Offline access is
// requested so the stored credential carries a refresh token.
func AuthURL(cfg *config.OAuth, scopes []string, state string) string {
	conf := NewOAuthConfig(cfg, scopes)
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeAndSave trades an authorization code for tokens and persists them
// as the credential for userEmail.
func ExchangeAndSave(ctx context.Context, cfg *config.OAuth, userEmail, authCode string, scopes []string) error {
	conf := NewOAuthConfig(cfg, scopes)

	token, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := SaveCredentials(userEmail, token, scopes); err != nil {
		return fmt.Errorf("failed to save credentials for %s: %w", userEmail, err)
	}
	return nil
}
