package google

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/logging"
	"workspacemcp/internal/services"
)

// FileBroker resolves legacy OAuth 2.0 credentials from per-account files on
// disk. It implements auth.LegacyBroker.
type FileBroker struct {
	cfg    *config.OAuth
	logger *slog.Logger
}

// NewFileBroker creates a broker backed by on-disk credential files.
func NewFileBroker(cfg *config.OAuth, logger *slog.Logger) *FileBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileBroker{cfg: cfg, logger: logger}
}

// GetAuthenticatedService loads the stored credential for userEmail, checks
// its scopes, and returns a handle whose token source refreshes on demand.
// Refresh failures surface as oauth2 errors so the caller can translate them
// into re-authentication guidance.
func (b *FileBroker) GetAuthenticatedService(ctx context.Context, serviceName, version, toolName, userEmail string, requiredScopes []string, sessionID string) (*services.Handle, string, error) {
	if userEmail == "" {
		return nil, "", &auth.Error{
			Reason:  auth.ReasonMissingPrincipal,
			Message: fmt.Sprintf("no user email provided for %s; pass user_google_email or authenticate first", toolName),
		}
	}

	rec, err := LoadCredentials(userEmail)
	if err != nil {
		return nil, "", &auth.Error{
			Reason:  auth.ReasonNoCredentials,
			Message: AuthenticationErrorMessage(userEmail, serviceName),
		}
	}

	available := rec.Scopes
	if len(available) == 0 {
		// Older credential files did not record scopes; assume the grant
		// covers what the tool needs and let Google reject otherwise.
		available = requiredScopes
	}
	if err := auth.CheckScopes(requiredScopes, available); err != nil {
		return nil, "", err
	}

	conf := NewOAuthConfig(b.cfg, rec.Scopes)
	ts := conf.TokenSource(ctx, rec.Token)

	tok, err := ts.Token()
	if err != nil {
		return nil, "", err
	}
	if tok.AccessToken != rec.Token.AccessToken {
		// Best effort: keep the file current so the next call skips the
		// refresh round trip.
		if err := SaveCredentials(userEmail, tok, rec.Scopes); err != nil {
			b.logger.Warn("failed to persist refreshed token",
				logging.UserHash(userEmail), logging.Err(err))
		}
	}

	b.logger.Info("authenticated Google service",
		logging.Tool(toolName), logging.Service(serviceName),
		logging.Version(version), logging.UserHash(userEmail),
		logging.Session(sessionID), logging.Generation(false))
	return services.NewHandle(serviceName, version, userEmail, oauth2.ReuseTokenSource(tok, ts)), userEmail, nil
}

// AuthenticationErrorMessage tells the caller how to establish credentials
// for an account that has none.
func AuthenticationErrorMessage(userEmail, serviceName string) string {
	return fmt.Sprintf(
		"No stored Google credentials for %s (service: %s).\n"+
			"To authenticate, run the start_google_auth tool with user_google_email=%s, "+
			"open the returned URL, grant access, and complete the flow. Then retry this call.",
		userEmail, serviceName, userEmail)
}
