package auth

import (
	"context"
	"sort"
	"strings"

	"workspacemcp/internal/logging"
	"workspacemcp/internal/services"
)

// acquire retrieves a validated credential for the selected OAuth generation
// and returns a client handle plus the principal it was authorized for.
func (a *Authenticator) acquire(ctx context.Context, useOAuth21 bool, serviceName, version, toolName string, requiredScopes []string, sessionID, principal string) (*services.Handle, string, error) {
	if useOAuth21 {
		return a.acquireOAuth21(ctx, serviceName, version, toolName, requiredScopes, sessionID, principal, false)
	}
	if a.legacy == nil {
		return nil, "", newError(ReasonNoCredentials,
			"legacy OAuth flow is not configured; cannot authenticate %s", toolName)
	}
	return a.legacy.GetAuthenticatedService(ctx, serviceName, version, toolName, principal, requiredScopes, sessionID)
}

// acquireOAuth21 implements the session-store generation. With a validated
// protocol-level token and a configured exchanger, the token is exchanged for
// a credential directly; otherwise the session store's identity-validated
// accessor is consulted. Both paths end with the scope superset check.
func (a *Authenticator) acquireOAuth21(ctx context.Context, serviceName, version, toolName string, requiredScopes []string, sessionID, authTokenEmail string, allowRecentAuth bool) (*services.Handle, string, error) {
	token := AccessTokenFromContext(ctx)

	if a.exchanger != nil && token != nil {
		tokenEmail := token.EmailClaim()

		resolvedEmail := tokenEmail
		if resolvedEmail == "" {
			resolvedEmail = authTokenEmail
		}
		if resolvedEmail == "" {
			return nil, "", newError(ReasonMissingIdentity,
				"authenticated user email could not be determined from access token")
		}

		// Identity-confusion guard: the token's own claim and the session's
		// authenticated identity must agree when both are present.
		if authTokenEmail != "" && tokenEmail != "" && tokenEmail != authTokenEmail {
			return nil, "", newError(ReasonIdentityMismatch,
				"access token email does not match authenticated session context")
		}

		cred := a.exchanger.EnsureSessionFromAccessToken(token, resolvedEmail, sessionID)
		if cred == nil {
			return nil, "", newError(ReasonNoCredentials,
				"unable to build Google credentials from authenticated access token")
		}

		available := cred.Scopes
		if len(available) == 0 {
			available = token.Scopes
		}
		if err := CheckScopes(requiredScopes, available); err != nil {
			return nil, "", err
		}

		handle, err := a.factory.Build(ctx, serviceName, version, cred)
		if err != nil {
			return nil, "", err
		}
		a.logger.Info("authenticated Google service",
			logging.Tool(toolName), logging.Service(serviceName),
			logging.Version(version), logging.UserHash(resolvedEmail))
		return handle, resolvedEmail, nil
	}

	// No protocol-level token (or no provider): the store path requires an
	// already-authenticated identity. Never attempt a lookup without one.
	if authTokenEmail == "" {
		return nil, "", newError(ReasonMissingPrincipal,
			"access denied: cannot retrieve credentials without authenticated user email")
	}
	if a.store == nil {
		return nil, "", newError(ReasonNoCredentials,
			"OAuth 2.1 session store is not configured")
	}

	cred := a.store.GetCredentialsWithValidation(authTokenEmail, sessionID, authTokenEmail, allowRecentAuth)
	if cred == nil {
		// The store returns nil when the session is not entitled to the
		// requested identity's credentials. Treat as denial, not "not found".
		return nil, "", newError(ReasonStoreDenied,
			"access denied: cannot retrieve credentials for %s; a session may only access credentials for its own authenticated account", authTokenEmail)
	}

	available := cred.Scopes
	if len(available) == 0 {
		// Store credentials that carry no explicit scope list are assumed to
		// hold exactly the required scopes.
		available = requiredScopes
	}
	if err := CheckScopes(requiredScopes, available); err != nil {
		return nil, "", err
	}

	handle, err := a.factory.Build(ctx, serviceName, version, cred)
	if err != nil {
		return nil, "", err
	}
	a.logger.Info("authenticated Google service",
		logging.Tool(toolName), logging.Service(serviceName),
		logging.Version(version), logging.UserHash(authTokenEmail))
	return handle, authTokenEmail, nil
}

// HandleFor authenticates the calling context against one service spec and
// returns a client handle plus the resolved principal. It is the entry point
// for callers outside the tool decorator, such as MCP resource handlers.
func (a *Authenticator) HandleFor(ctx context.Context, spec ServiceSpec, operation string) (*services.Handle, string, error) {
	rc := a.Resolve(ctx, operation)
	if rc.Principal == "" {
		return nil, "", newError(ReasonMissingPrincipal,
			"authentication required for %s, but no authenticated user was found", operation)
	}

	svcCfg, ok := LookupService(spec.Type)
	if !ok {
		return nil, "", newError(ReasonUnknownService, "unknown service type: %s", spec.Type)
	}
	version := spec.Version
	if version == "" {
		version = svcCfg.Version
	}

	useOAuth21 := a.useOAuth21(ctx, rc, operation)
	return a.acquire(ctx, useOAuth21, svcCfg.Service, version, operation, ResolveScopes(spec.Scopes), rc.SessionID, rc.Principal)
}

// CheckScopes verifies that available is a superset of required. On failure
// the error enumerates both sets, sorted, so the caller can see exactly what
// is missing.
func CheckScopes(required, available []string) error {
	have := make(map[string]struct{}, len(available))
	for _, s := range available {
		have[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := have[s]; !ok {
			need := append([]string(nil), required...)
			held := append([]string(nil), available...)
			sort.Strings(need)
			sort.Strings(held)
			return newError(ReasonInsufficientScopes,
				"credentials lack required scopes. Need: [%s], Have: [%s]",
				strings.Join(need, ", "), strings.Join(held, ", "))
		}
	}
	return nil
}
