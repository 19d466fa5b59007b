package session

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/logging"
)

const (
	// DefaultCleanupInterval is how often expired credentials are swept.
	DefaultCleanupInterval = 1 * time.Minute

	// DefaultRecentAuthWindow is how long after authentication a credential
	// may be fetched without an established session binding, when the caller
	// explicitly allows it.
	DefaultRecentAuthWindow = 5 * time.Minute
)

type entry struct {
	credential *auth.Credential
	authTime   time.Time
	lastAccess time.Time
}

// Store is an in-memory OAuth 2.1 session store. Credentials are keyed by
// user email; session ids are bound to the first identity they authenticate
// as and may never read another identity's credentials.
type Store struct {
	mu               sync.RWMutex
	entries          map[string]*entry // user email -> credential entry
	sessionBindings  map[string]string // session id -> user email
	recentAuthWindow time.Duration
	cleanupTicker    *time.Ticker
	cleanupDone      chan struct{}
	logger           *slog.Logger
}

// NewStore creates a session store with default intervals.
func NewStore() *Store {
	return NewStoreWithOptions(DefaultCleanupInterval, DefaultRecentAuthWindow, slog.Default())
}

// NewStoreWithOptions creates a session store with explicit cleanup interval,
// recent-auth window and logger.
func NewStoreWithOptions(cleanupInterval, recentAuthWindow time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		entries:          make(map[string]*entry),
		sessionBindings:  make(map[string]string),
		recentAuthWindow: recentAuthWindow,
		cleanupTicker:    time.NewTicker(cleanupInterval),
		cleanupDone:      make(chan struct{}),
		logger:           logger,
	}
	go s.sweepExpired()
	return s
}

// SaveCredential stores a credential for a user and optionally binds the
// session id that produced it.
func (s *Store) SaveCredential(userEmail string, cred *auth.Credential, sessionID string) {
	if userEmail == "" || cred == nil {
		return
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[userEmail] = &entry{
		credential: cred,
		authTime:   now,
		lastAccess: now,
	}
	if sessionID != "" {
		s.sessionBindings[sessionID] = userEmail
	}
	s.logger.Debug("saved credential",
		logging.UserHash(userEmail), logging.Session(sessionID))
}

// GetCredentialsWithValidation returns the credential for requestedUserEmail
// after validating the session's entitlement. A nil return means access
// denied. Implements auth.SessionStore.
func (s *Store) GetCredentialsWithValidation(requestedUserEmail, sessionID, authTokenEmail string, allowRecentAuth bool) *auth.Credential {
	if requestedUserEmail == "" {
		return nil
	}

	// The authenticated identity is authoritative: a caller may only
	// retrieve credentials for the account it authenticated as.
	if authTokenEmail != "" && requestedUserEmail != authTokenEmail {
		s.logger.Warn("credential access denied: identity mismatch",
			logging.UserHash(requestedUserEmail), logging.Session(sessionID))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID != "" {
		bound, ok := s.sessionBindings[sessionID]
		if ok && bound != requestedUserEmail {
			s.logger.Warn("credential access denied: session bound to another identity",
				logging.Session(sessionID))
			return nil
		}
		if !ok {
			// An unbound session has no entitlement of its own; without an
			// authenticated identity it may only proceed inside the
			// recent-auth window, and only when the caller allows that.
			if authTokenEmail == "" && !s.recentlyAuthenticatedLocked(requestedUserEmail, allowRecentAuth) {
				return nil
			}
			s.sessionBindings[sessionID] = requestedUserEmail
		}
	} else if authTokenEmail == "" && !s.recentlyAuthenticatedLocked(requestedUserEmail, allowRecentAuth) {
		return nil
	}

	e, ok := s.entries[requestedUserEmail]
	if !ok {
		return nil
	}
	if expired(e.credential) {
		return nil
	}
	e.lastAccess = time.Now()
	return e.credential
}

// EnsureSessionFromAccessToken builds a credential from a validated
// protocol-level access token and records it under the given identity.
// Implements auth.TokenExchanger.
func (s *Store) EnsureSessionFromAccessToken(token *auth.AccessToken, email, sessionID string) *auth.Credential {
	if token == nil || token.Raw == "" || email == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reuse an existing non-expired credential for this identity so repeated
	// calls on one session don't rebuild state.
	if e, ok := s.entries[email]; ok && !expired(e.credential) {
		if sessionID != "" {
			s.sessionBindings[sessionID] = email
		}
		e.lastAccess = time.Now()
		return e.credential
	}

	cred := &auth.Credential{
		Token: &oauth2.Token{
			AccessToken: token.Raw,
			TokenType:   "Bearer",
		},
		UserEmail: email,
		Scopes:    append([]string(nil), token.Scopes...),
	}
	now := time.Now()
	s.entries[email] = &entry{credential: cred, authTime: now, lastAccess: now}
	if sessionID != "" {
		s.sessionBindings[sessionID] = email
	}
	s.logger.Debug("established session from access token",
		logging.UserHash(email), logging.Session(sessionID),
		slog.String("token", logging.SanitizeToken(token.Raw)))
	return cred
}

// BoundIdentity returns the identity a session id is bound to, if any.
func (s *Store) BoundIdentity(sessionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.sessionBindings[sessionID]
	return email, ok
}

// RemoveSession drops a session binding. The credential itself stays until
// it expires or the user is removed.
func (s *Store) RemoveSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessionBindings, sessionID)
}

// RemoveUser drops a user's credential and all session bindings pointing at
// it.
func (s *Store) RemoveUser(userEmail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, userEmail)
	for sessionID, email := range s.sessionBindings {
		if email == userEmail {
			delete(s.sessionBindings, sessionID)
		}
	}
	s.logger.Info("removed credentials", logging.UserHash(userEmail))
}

// Stop terminates the background sweep goroutine.
func (s *Store) Stop() {
	s.cleanupTicker.Stop()
	close(s.cleanupDone)
}

func (s *Store) recentlyAuthenticatedLocked(userEmail string, allowRecentAuth bool) bool {
	if !allowRecentAuth {
		return false
	}
	e, ok := s.entries[userEmail]
	if !ok {
		return false
	}
	return time.Since(e.authTime) <= s.recentAuthWindow
}

func expired(cred *auth.Credential) bool {
	if cred == nil || cred.Token == nil {
		return true
	}
	// Zero expiry means the token does not advertise one; rely on the sweep
	// of stale entries instead.
	if cred.Token.Expiry.IsZero() {
		return false
	}
	return cred.Token.Expiry.Before(time.Now())
}

func (s *Store) sweepExpired() {
	for {
		select {
		case <-s.cleanupTicker.C:
			s.mu.Lock()
			removed := 0
			for email, e := range s.entries {
				if expired(e.credential) {
					delete(s.entries, email)
					removed++
				}
			}
			if removed > 0 {
				// Bindings to removed users become dangling; drop them too.
				for sessionID, email := range s.sessionBindings {
					if _, ok := s.entries[email]; !ok {
						delete(s.sessionBindings, sessionID)
					}
				}
			}
			s.mu.Unlock()
			if removed > 0 {
				s.logger.Info("swept expired credentials", slog.Int("count", removed))
			}
		case <-s.cleanupDone:
			return
		}
	}
}
