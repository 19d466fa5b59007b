package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Health status values reported per check.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusMissing      = "missing"
)

// HealthChecker serves the Kubernetes liveness and readiness endpoints.
// Liveness only confirms the process is up; readiness additionally inspects
// the server context, because a server without its authenticator or session
// store cannot usefully accept MCP traffic.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker that starts out ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is marked ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// runChecks evaluates every readiness condition against the server context
// and reports whether all of them passed.
func (h *HealthChecker) runChecks() (map[string]string, bool) {
	checks := make(map[string]string)
	ok := true

	if h.ready.Load() {
		checks["ready"] = healthStatusOK
	} else {
		checks["ready"] = healthStatusNotReady
		ok = false
	}

	if h.serverContext == nil {
		return checks, ok
	}

	if h.serverContext.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	} else {
		checks["shutdown"] = healthStatusOK
	}

	if h.serverContext.Authenticator() != nil {
		checks["authenticator"] = healthStatusOK
	} else {
		checks["authenticator"] = healthStatusMissing
		ok = false
	}

	// The OAuth 2.1 transport stores per-session credentials; without the
	// store and the session id manager every authenticated call would fail.
	if cfg := h.serverContext.OAuthConfig(); cfg != nil && cfg.OAuth21Enabled {
		if h.serverContext.Sessions() != nil && h.serverContext.SessionIDs() != nil {
			checks["session_store"] = healthStatusOK
		} else {
			checks["session_store"] = healthStatusMissing
			ok = false
		}
	}

	return checks, ok
}

// HealthResponse is the JSON body of the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse extends the health body with uptime and session
// information for operators.
type DetailedHealthResponse struct {
	Status         string            `json:"status"`
	Uptime         string            `json:"uptime"`
	ActiveSessions int               `json:"active_sessions"`
	Checks         map[string]string `json:"checks,omitempty"`
}

// LivenessHandler returns the /healthz handler. It answers OK whenever the
// process can serve HTTP at all; restart decisions never depend on
// downstream state.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns the /readyz handler. It fails as soon as any
// readiness check fails so the load balancer stops routing traffic here.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		checks, ok := h.runChecks()
		response := HealthResponse{Checks: checks}
		if ok {
			response.Status = healthStatusOK
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = healthStatusNotReady
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// DetailedHealthHandler returns the /healthz/detailed handler with uptime,
// the bound session count and the individual check results.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		checks, ok := h.runChecks()
		response := DetailedHealthResponse{
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: checks,
		}
		if h.serverContext != nil && h.serverContext.SessionIDs() != nil {
			response.ActiveSessions = len(h.serverContext.SessionIDs().ListSessions())
		}

		if ok {
			response.Status = healthStatusOK
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = healthStatusNotReady
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// RegisterHealthEndpoints registers the health endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
