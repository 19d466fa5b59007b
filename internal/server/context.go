package server

import (
	"context"
	"sync"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/session"
)

// ServerContext holds the shared state of one MCP server process: the OAuth
// configuration, the authenticator all tool handlers go through, and the
// session store backing the OAuth 2.1 flow.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg           *config.OAuth
	authenticator *auth.Authenticator
	sessions      *session.Store
	sessionIDs    *SessionIDManager

	instrumentation *instrumentation.Provider
	auditLogger     *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates the shared server context. The session store and
// session id manager may be nil on stdio deployments that only use the
// legacy flow.
func NewServerContext(ctx context.Context, cfg *config.OAuth, authenticator *auth.Authenticator, sessions *session.Store, sessionIDs *SessionIDManager) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:           shutdownCtx,
		cancel:        cancel,
		cfg:           cfg,
		authenticator: authenticator,
		sessions:      sessions,
		sessionIDs:    sessionIDs,
	}
}

// Context returns the server's root context. It is canceled on shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// OAuthConfig returns the immutable OAuth configuration.
func (sc *ServerContext) OAuthConfig() *config.OAuth {
	return sc.cfg
}

// Authenticator returns the authenticator tool handlers are wrapped with.
func (sc *ServerContext) Authenticator() *auth.Authenticator {
	return sc.authenticator
}

// Sessions returns the OAuth 2.1 session store, or nil when not configured.
func (sc *ServerContext) Sessions() *session.Store {
	return sc.sessions
}

// SessionIDs returns the session id manager, or nil when not configured.
func (sc *ServerContext) SessionIDs() *SessionIDManager {
	return sc.sessionIDs
}

// SetInstrumentation attaches the telemetry provider and audit logger, and
// hands the metrics recorder to the session id manager so the active
// sessions gauge tracks bindings.
func (sc *ServerContext) SetInstrumentation(provider *instrumentation.Provider, audit *instrumentation.AuditLogger) {
	sc.mu.Lock()
	sc.instrumentation = provider
	sc.auditLogger = audit
	sc.mu.Unlock()

	if sc.sessionIDs != nil && provider != nil {
		sc.sessionIDs.SetMetrics(provider.Metrics())
	}
}

// Instrumentation returns the telemetry provider, or nil when disabled.
func (sc *ServerContext) Instrumentation() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentation
}

// AuditLogger returns the audit logger, or nil when disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the root context and stops owned background workers.
// Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true

	if sc.sessions != nil {
		sc.sessions.Stop()
	}
	if sc.sessionIDs != nil {
		sc.sessionIDs.Stop()
	}
	sc.cancel()
	return nil
}
