package server

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"workspacemcp/internal/instrumentation"
)

func newTestSessionIDManager(t *testing.T) *SessionIDManager {
	t.Helper()
	m := NewSessionIDManagerWithLogger(time.Hour, slog.Default())
	t.Cleanup(m.Stop)
	return m
}

func TestSessionIDForRequest(t *testing.T) {
	m := newTestSessionIDManager(t)

	r1 := httptest.NewRequest("POST", "/mcp", nil)
	r1.Header.Set("Authorization", "Bearer token-a")
	r2 := httptest.NewRequest("POST", "/mcp", nil)
	r2.Header.Set("Authorization", "Bearer token-a")
	r3 := httptest.NewRequest("POST", "/mcp", nil)
	r3.Header.Set("Authorization", "Bearer token-b")

	id1 := m.SessionIDForRequest(r1)
	id2 := m.SessionIDForRequest(r2)
	id3 := m.SessionIDForRequest(r3)

	if id1 == "" {
		t.Fatal("expected non-empty session id for authorized request")
	}
	if id1 != id2 {
		t.Errorf("same bearer token produced different session ids: %s vs %s", id1, id2)
	}
	if id1 == id3 {
		t.Error("different bearer tokens produced the same session id")
	}
}

func TestSessionIDForRequestNoAuth(t *testing.T) {
	m := newTestSessionIDManager(t)

	r := httptest.NewRequest("POST", "/mcp", nil)
	if id := m.SessionIDForRequest(r); id != "" {
		t.Errorf("expected empty session id without Authorization header, got %s", id)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer token", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"no header", "", ""},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
		{"bare scheme", "Bearer ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/mcp", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := BearerToken(r); got != tt.want {
				t.Errorf("BearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBindUserAndLookup(t *testing.T) {
	m := newTestSessionIDManager(t)

	m.BindUser("session-1", "jane@example.com")

	if got := m.UserForSession("session-1"); got != "jane@example.com" {
		t.Errorf("UserForSession() = %q, want jane@example.com", got)
	}
	if got := m.UserForSession("session-2"); got != "" {
		t.Errorf("expected empty identity for unknown session, got %q", got)
	}
}

func TestBindUserIgnoresEmptyInput(t *testing.T) {
	m := newTestSessionIDManager(t)

	m.BindUser("", "jane@example.com")
	m.BindUser("session-1", "")

	if sessions := m.ListSessions(); len(sessions) != 0 {
		t.Errorf("expected no sessions bound, got %v", sessions)
	}
}

func TestRemoveSession(t *testing.T) {
	m := newTestSessionIDManager(t)

	m.BindUser("session-1", "jane@example.com")
	m.RemoveSession("session-1")

	if got := m.UserForSession("session-1"); got != "" {
		t.Errorf("expected removed session to have no identity, got %q", got)
	}
}

func TestListSessions(t *testing.T) {
	m := newTestSessionIDManager(t)

	m.BindUser("session-1", "jane@example.com")
	m.BindUser("session-2", "john@example.com")

	sessions := m.ListSessions()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}

func activeSessionsValue(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "active_sessions" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("active_sessions is %T, want int64 sum", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestActiveSessionsGauge(t *testing.T) {
	m := newTestSessionIDManager(t)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(provider.Meter("test"), false)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	m.SetMetrics(metrics)

	m.BindUser("session-1", "jane@example.com")
	m.BindUser("session-2", "john@example.com")
	// Rebinding an existing session must not double count.
	m.BindUser("session-1", "jane@example.com")
	if got := activeSessionsValue(t, reader); got != 2 {
		t.Errorf("active_sessions after binding = %d, want 2", got)
	}

	m.RemoveSession("session-1")
	m.RemoveSession("session-1") // already gone, must not go negative
	if got := activeSessionsValue(t, reader); got != 1 {
		t.Errorf("active_sessions after removal = %d, want 1", got)
	}

	m.mu.Lock()
	m.sessions["session-2"].lastAccess = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()
	m.expireStale(time.Now())
	if got := activeSessionsValue(t, reader); got != 0 {
		t.Errorf("active_sessions after expiry = %d, want 0", got)
	}
}

func TestExpireStale(t *testing.T) {
	m := newTestSessionIDManager(t)

	m.BindUser("session-old", "jane@example.com")
	m.BindUser("session-new", "john@example.com")

	m.mu.Lock()
	m.sessions["session-old"].lastAccess = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	if expired := m.expireStale(time.Now()); expired != 1 {
		t.Errorf("expireStale() = %d, want 1", expired)
	}
	if got := m.UserForSession("session-old"); got != "" {
		t.Errorf("expected stale session to be dropped, got identity %q", got)
	}
	if got := m.UserForSession("session-new"); got != "john@example.com" {
		t.Errorf("expected fresh session to survive, got %q", got)
	}
}
