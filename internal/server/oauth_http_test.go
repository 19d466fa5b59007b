package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/session"
)

func TestValidateHTTPSRequirement(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{
			name:    "valid HTTPS URL",
			baseURL: "https://mcp.example.com",
			wantErr: false,
		},
		{
			name:    "valid HTTP localhost",
			baseURL: "http://localhost:8000",
			wantErr: false,
		},
		{
			name:    "valid HTTP 127.0.0.1",
			baseURL: "http://127.0.0.1:8000",
			wantErr: false,
		},
		{
			name:    "valid HTTP IPv6 loopback",
			baseURL: "http://[::1]:8000",
			wantErr: false,
		},
		{
			name:    "invalid HTTP non-localhost",
			baseURL: "http://mcp.example.com",
			wantErr: true,
		},
		{
			name:    "invalid HTTP with localhost substring",
			baseURL: "http://localhost.example.com",
			wantErr: true,
		},
		{
			name:    "empty URL",
			baseURL: "",
			wantErr: true,
		},
		{
			name:    "invalid scheme",
			baseURL: "ftp://example.com",
			wantErr: true,
		},
		{
			name:    "HTTPS with port",
			baseURL: "https://mcp.example.com:8443",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPSRequirement(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPSRequirement(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
		})
	}
}

func TestScopesFromToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{
		"scope": "openid https://www.googleapis.com/auth/gmail.readonly",
	})

	scopes := scopesFromToken(tok)
	if len(scopes) != 2 {
		t.Fatalf("expected 2 scopes, got %d: %v", len(scopes), scopes)
	}
	if scopes[0] != "openid" {
		t.Errorf("scopes[0] = %q, want openid", scopes[0])
	}
}

func TestScopesFromTokenMissing(t *testing.T) {
	if scopes := scopesFromToken(&oauth2.Token{}); scopes != nil {
		t.Errorf("expected nil scopes for token without scope extra, got %v", scopes)
	}
}

func TestNewOAuthHTTPServerRejectsNonLoopbackHTTP(t *testing.T) {
	cfg := OAuthServerConfig{
		BaseURL:            "http://mcp.example.com",
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
	}

	_, err := NewOAuthHTTPServer(cfg, http.NotFoundHandler(), testServerContext(t), nil)
	if err == nil {
		t.Fatal("expected error for non-loopback HTTP base URL")
	}
}

func TestNewOAuthHTTPServerRequiresClientCredentials(t *testing.T) {
	cfg := OAuthServerConfig{
		BaseURL: "http://localhost:8000",
	}

	_, err := NewOAuthHTTPServer(cfg, http.NotFoundHandler(), testServerContext(t), nil)
	if err == nil {
		t.Fatal("expected error when Google client credentials are missing")
	}
}

func newTestOAuthHTTPServer(t *testing.T, sc *ServerContext) *OAuthHTTPServer {
	t.Helper()

	srv, err := NewOAuthHTTPServer(OAuthServerConfig{
		BaseURL:            "http://localhost:8000",
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
	}, http.NotFoundHandler(), sc, nil)
	if err != nil {
		t.Fatalf("NewOAuthHTTPServer() error = %v", err)
	}
	return srv
}

func TestRequestMetricsPreservesResponse(t *testing.T) {
	sc := testServerContext(t)
	srv := newTestOAuthHTTPServer(t, sc)

	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "0.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	sc.SetInstrumentation(provider, nil)

	handler := srv.requestMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/oauth/token", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTeapot)
	}
	if rr.Body.String() != "short and stout" {
		t.Errorf("body = %q, want %q", rr.Body.String(), "short and stout")
	}
}

func TestRequestMetricsWithoutInstrumentation(t *testing.T) {
	sc := testServerContext(t)
	srv := newTestOAuthHTTPServer(t, sc)

	handler := srv.requestMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/mcp", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
}

// Streaming handlers assert http.Flusher on the response writer; the metrics
// wrapper must not hide it.
func TestStatusRecorderForwardsFlush(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr, status: http.StatusOK}

	var w http.ResponseWriter = rec
	f, ok := w.(http.Flusher)
	if !ok {
		t.Fatal("statusRecorder does not implement http.Flusher")
	}
	f.Flush()
	if !rr.Flushed {
		t.Error("Flush was not forwarded to the underlying writer")
	}
}

func testServerContext(t *testing.T) *ServerContext {
	t.Helper()

	oauthCfg := &config.OAuth{
		OAuth21Enabled: true,
		Transport:      config.TransportStreamableHTTP,
		BaseURL:        "http://localhost:8000",
	}
	sessions := session.NewStore()
	sessionIDs := NewSessionIDManager()
	authenticator := auth.New(oauthCfg, auth.Deps{
		Store:     sessions,
		Exchanger: sessions,
		Factory:   google.NewClientFactory(oauthCfg),
	})

	sc := NewServerContext(context.Background(), oauthCfg, authenticator, sessions, sessionIDs)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}
