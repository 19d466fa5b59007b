package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"workspacemcp/internal/config"
	"workspacemcp/internal/session"
)

func decodeHealth(t *testing.T, rr *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	return resp
}

func TestLivenessAlwaysOK(t *testing.T) {
	h := NewHealthChecker(testServerContext(t))
	h.SetReady(false) // liveness must not depend on readiness

	rr := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeHealth(t, rr); resp.Status != healthStatusOK {
		t.Errorf("liveness body status = %q, want %q", resp.Status, healthStatusOK)
	}
}

func TestReadinessChecksPass(t *testing.T) {
	h := NewHealthChecker(testServerContext(t))

	rr := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("readiness status = %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeHealth(t, rr)
	for _, check := range []string{"ready", "shutdown", "authenticator", "session_store"} {
		if resp.Checks[check] != healthStatusOK {
			t.Errorf("check %q = %q, want %q", check, resp.Checks[check], healthStatusOK)
		}
	}
}

func TestReadinessFailsWhenNotReady(t *testing.T) {
	h := NewHealthChecker(testServerContext(t))
	h.SetReady(false)

	rr := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if resp := decodeHealth(t, rr); resp.Checks["ready"] != healthStatusNotReady {
		t.Errorf("ready check = %q, want %q", resp.Checks["ready"], healthStatusNotReady)
	}
}

func TestReadinessFailsAfterShutdown(t *testing.T) {
	sc := testServerContext(t)
	h := NewHealthChecker(sc)
	_ = sc.Shutdown()

	rr := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if resp := decodeHealth(t, rr); resp.Checks["shutdown"] != healthStatusShuttingDown {
		t.Errorf("shutdown check = %q, want %q", resp.Checks["shutdown"], healthStatusShuttingDown)
	}
}

func TestReadinessRequiresSessionStoreForOAuth21(t *testing.T) {
	cfg := &config.OAuth{
		OAuth21Enabled: true,
		Transport:      config.TransportStreamableHTTP,
		BaseURL:        "http://localhost:8000",
	}
	// OAuth 2.1 enabled but no session store or id manager wired.
	sc := NewServerContext(context.Background(), cfg, nil, nil, nil)
	t.Cleanup(func() { _ = sc.Shutdown() })
	h := NewHealthChecker(sc)

	rr := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	resp := decodeHealth(t, rr)
	if resp.Checks["session_store"] != healthStatusMissing {
		t.Errorf("session_store check = %q, want %q", resp.Checks["session_store"], healthStatusMissing)
	}
	if resp.Checks["authenticator"] != healthStatusMissing {
		t.Errorf("authenticator check = %q, want %q", resp.Checks["authenticator"], healthStatusMissing)
	}
}

func TestReadinessIgnoresSessionStoreOnStdio(t *testing.T) {
	cfg := &config.OAuth{Transport: config.TransportStdio}
	sessions := session.NewStore()
	sc := NewServerContext(context.Background(), cfg, testServerContext(t).Authenticator(), sessions, nil)
	t.Cleanup(func() { _ = sc.Shutdown() })
	h := NewHealthChecker(sc)

	rr := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("readiness status = %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeHealth(t, rr); resp.Checks["session_store"] != "" {
		t.Errorf("expected no session_store check on stdio, got %q", resp.Checks["session_store"])
	}
}

func TestDetailedHealthReportsSessions(t *testing.T) {
	sc := testServerContext(t)
	sc.SessionIDs().BindUser("session-1", "jane@example.com")
	h := NewHealthChecker(sc)

	rr := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/healthz/detailed", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("detailed status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp DetailedHealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode detailed response: %v", err)
	}
	if resp.ActiveSessions != 1 {
		t.Errorf("active sessions = %d, want 1", resp.ActiveSessions)
	}
	if resp.Uptime == "" {
		t.Error("expected non-empty uptime")
	}
}

func TestRegisterHealthEndpoints(t *testing.T) {
	h := NewHealthChecker(testServerContext(t))
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}
