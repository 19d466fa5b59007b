package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"workspacemcp/internal/logging"
)

// IsRefreshError reports whether err is a token-refresh failure raised by the
// underlying OAuth transport while the wrapped operation was calling Google.
// Anything else must propagate unmodified.
func IsRefreshError(err error) bool {
	if err == nil {
		return false
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}
	// Refresh failures are not always typed: the Google API client flattens
	// some of them into plain messages like "googleapi: Error 400:
	// invalid_grant". Match on the grant failure markers themselves.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "expired or revoked") ||
		strings.Contains(msg, "token expired")
}

// Refresh failure reasons, used as the reason label on the refresh-failure
// metric.
const (
	RefreshReasonExpired   = "expired"
	RefreshReasonTransient = "transient"
)

// RefreshError is the translated form of a token-refresh failure. Guidance
// carries the user-facing reauthentication instructions; Service and Reason
// classify the failure for callers that record it.
type RefreshError struct {
	UserEmail string
	Service   string
	Reason    string
	Guidance  string
	cause     error
}

func (e *RefreshError) Error() string { return e.Guidance }

func (e *RefreshError) Unwrap() error { return e.cause }

// translateRefreshError turns a refresh failure into a user-actionable
// message naming the affected principal and service. Expired/revoked tokens
// get specific guidance; anything else gets the generic instruction.
func (a *Authenticator) translateRefreshError(err error, userEmail, serviceName string) error {
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "expired or revoked") {
		a.logger.Warn("token expired or revoked",
			logging.UserHash(userEmail), logging.Service(serviceName))

		display := serviceDisplayName(serviceName)
		return &RefreshError{
			UserEmail: userEmail,
			Service:   serviceName,
			Reason:    RefreshReasonExpired,
			cause:     err,
			Guidance: fmt.Sprintf("**Authentication Required: Token Expired/Revoked for %s**\n\n"+
				"Your Google authentication token for %s has expired or been revoked. "+
				"This commonly happens when:\n"+
				"- The token has been unused for an extended period\n"+
				"- You've changed your Google account password\n"+
				"- You've revoked access to the application\n\n"+
				"**To resolve this, please:**\n"+
				"1. Run `start_google_auth` with your email (%s) and service_name='%s'\n"+
				"2. Complete the authentication flow in your browser\n"+
				"3. Retry your original command\n\n"+
				"The application will automatically use the new credentials once authentication is complete.",
				display, userEmail, userEmail, display),
		}
	}

	a.logger.Error("unexpected refresh error",
		logging.UserHash(userEmail), logging.Service(serviceName), logging.Err(err))
	return &RefreshError{
		UserEmail: userEmail,
		Service:   serviceName,
		Reason:    RefreshReasonTransient,
		cause:     err,
		Guidance: fmt.Sprintf("authentication error occurred for %s. "+
			"Please run `start_google_auth` with your email and the appropriate service name to reauthenticate", userEmail),
	}
}

// serviceDisplayName renders a human-facing name like "Google Gmail".
func serviceDisplayName(serviceName string) string {
	if serviceName == "" {
		return "Google"
	}
	return "Google " + strings.ToUpper(serviceName[:1]) + serviceName[1:]
}
