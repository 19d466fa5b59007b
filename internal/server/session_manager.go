package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/logging"
)

// sessionInfo tracks session metadata for cleanup.
type sessionInfo struct {
	userEmail  string
	lastAccess time.Time
}

// SessionIDManager derives stable MCP session ids for HTTP requests and
// tracks which Google identity each session belongs to. Each bearer token
// maps to one session id, so multiple accounts can share a single server
// instance without crossing sessions.
type SessionIDManager struct {
	sessions       map[string]*sessionInfo // session id -> info
	mu             sync.RWMutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	sessionTimeout time.Duration
	logger         *slog.Logger
	metrics        *instrumentation.Metrics // nil until SetMetrics; guarded by mu
}

// NewSessionIDManager creates a session id manager with a 24h timeout.
func NewSessionIDManager() *SessionIDManager {
	return NewSessionIDManagerWithLogger(24*time.Hour, slog.Default())
}

// NewSessionIDManagerWithLogger creates a session id manager with custom
// timeout and logger.
func NewSessionIDManagerWithLogger(timeout time.Duration, logger *slog.Logger) *SessionIDManager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &SessionIDManager{
		sessions:       make(map[string]*sessionInfo),
		cleanupTicker:  time.NewTicker(10 * time.Minute),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		logger:         logger,
	}
	go m.cleanupExpiredSessions()
	return m
}

// SessionIDForRequest derives the session id for an HTTP request from its
// bearer token. Returns "" when the request carries no Authorization header.
func (m *SessionIDManager) SessionIDForRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	// The bearer token uniquely identifies the authenticated client;
	// hashing it yields a stable session id without storing the token.
	hash := sha256.Sum256([]byte(authHeader))
	return hex.EncodeToString(hash[:])
}

// BearerToken extracts the raw bearer token from a request, or "".
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return authHeader[len(prefix):]
	}
	return ""
}

// SetMetrics attaches a metrics recorder so the manager can keep the active
// sessions gauge in step with the binding table.
func (m *SessionIDManager) SetMetrics(metrics *instrumentation.Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

// BindUser records which Google identity a session id belongs to.
func (m *SessionIDManager) BindUser(sessionID, userEmail string) {
	if sessionID == "" || userEmail == "" {
		return
	}
	m.mu.Lock()
	_, existed := m.sessions[sessionID]
	m.sessions[sessionID] = &sessionInfo{
		userEmail:  userEmail,
		lastAccess: time.Now(),
	}
	if !existed && m.metrics != nil {
		m.metrics.IncrementActiveSessions(context.Background())
	}
	m.mu.Unlock()
	m.logger.Debug("bound session to identity",
		logging.Session(sessionID), logging.UserHash(userEmail))
}

// UserForSession returns the identity bound to a session id, or "".
func (m *SessionIDManager) UserForSession(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.sessions[sessionID]; ok {
		info.lastAccess = time.Now()
		return info.userEmail
	}
	return ""
}

// RemoveSession drops a session binding.
func (m *SessionIDManager) RemoveSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return
	}
	delete(m.sessions, sessionID)
	if m.metrics != nil {
		m.metrics.DecrementActiveSessions(context.Background())
	}
}

// ListSessions returns all active session ids.
func (m *SessionIDManager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]string, 0, len(m.sessions))
	for sessionID := range m.sessions {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// cleanupExpiredSessions periodically drops sessions past the timeout.
func (m *SessionIDManager) cleanupExpiredSessions() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if expired := m.expireStale(time.Now()); expired > 0 {
				m.logger.Info("cleaned up expired sessions", slog.Int("count", expired))
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// expireStale removes sessions whose last access predates the timeout and
// returns how many were dropped.
func (m *SessionIDManager) expireStale(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for sessionID, info := range m.sessions {
		if now.Sub(info.lastAccess) > m.sessionTimeout {
			delete(m.sessions, sessionID)
			if m.metrics != nil {
				m.metrics.DecrementActiveSessions(context.Background())
			}
			expired++
		}
	}
	return expired
}

// Stop terminates the cleanup goroutine.
func (m *SessionIDManager) Stop() {
	if m.cleanupTicker != nil {
		m.cleanupTicker.Stop()
	}
	if m.cleanupDone != nil {
		close(m.cleanupDone)
	}
}
