package auth

import "fmt"

// Reason identifies which authentication precondition failed. Callers and
// tests branch on the discriminant instead of matching message text.
type Reason int

const (
	// ReasonUnknownService means the declared service type is not in the
	// service registry.
	ReasonUnknownService Reason = iota

	// ReasonMissingPrincipal means no authenticated user was found in the
	// request context.
	ReasonMissingPrincipal

	// ReasonMissingIdentity means no identity could be determined from the
	// access token or the caller-supplied principal.
	ReasonMissingIdentity

	// ReasonIdentityMismatch means the token-embedded identity and the
	// caller-supplied identity disagree.
	ReasonIdentityMismatch

	// ReasonInsufficientScopes means the credential's granted scopes do not
	// cover the tool's required scopes.
	ReasonInsufficientScopes

	// ReasonStoreDenied means the session store refused to hand out the
	// requested credential.
	ReasonStoreDenied

	// ReasonNoCredentials means no usable credential could be produced.
	ReasonNoCredentials
)

// String returns a stable label for the reason, used in logs and metrics.
func (r Reason) String() string {
	switch r {
	case ReasonUnknownService:
		return "unknown_service"
	case ReasonMissingPrincipal:
		return "missing_principal"
	case ReasonMissingIdentity:
		return "missing_identity"
	case ReasonIdentityMismatch:
		return "identity_mismatch"
	case ReasonInsufficientScopes:
		return "insufficient_scopes"
	case ReasonStoreDenied:
		return "store_denied"
	case ReasonNoCredentials:
		return "no_credentials"
	default:
		return "unknown"
	}
}

// Error is returned for any unmet authentication or authorization
// precondition. It always carries a human-readable explanation sufficient
// for the caller to act on, and is never wrapped or masked by the call
// wrapper.
type Error struct {
	Reason  Reason
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

func newError(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
