package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	oauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers/google"
	"github.com/giantswarm/mcp-oauth/security"
	oauthserver "github.com/giantswarm/mcp-oauth/server"
	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/logging"
)

const (
	// DefaultRefreshTokenTTL is the TTL for refresh tokens issued by the
	// authorization server (90 days).
	DefaultRefreshTokenTTL = 90 * 24 * time.Hour

	// DefaultIPRateLimit is the per-IP request rate limit (requests/second).
	DefaultIPRateLimit = 10
	// DefaultIPBurst is the burst size for IP rate limiting.
	DefaultIPBurst = 20

	// DefaultUserRateLimit is the per-user request rate limit (requests/second).
	DefaultUserRateLimit = 100
	// DefaultUserBurst is the burst size for user rate limiting.
	DefaultUserBurst = 200

	// DefaultMaxClientsPerIP caps dynamic client registrations per IP.
	DefaultMaxClientsPerIP = 10

	// DefaultReadHeaderTimeout bounds request header reads.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds response writes. Generous because MCP
	// streamable HTTP responses can be long-lived.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout bounds keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
)

// OAuthServerConfig configures the OAuth 2.1 authorization layer in front of
// the MCP HTTP transport.
type OAuthServerConfig struct {
	// BaseURL is the externally reachable base URL (the OAuth issuer).
	BaseURL string

	// GoogleClientID and GoogleClientSecret identify the Google OAuth client.
	GoogleClientID     string
	GoogleClientSecret string

	// Scopes are the Google scopes requested during authorization. When
	// empty, the full default tool scope set is requested up front.
	Scopes []string

	// AllowPublicClientRegistration permits unauthenticated dynamic client
	// registration (RFC 7591). MCP clients generally require this.
	AllowPublicClientRegistration bool

	// RegistrationAccessToken, when set, gates client registration instead.
	RegistrationAccessToken string

	// Addr is the listen address, e.g. ":8000".
	Addr string

	// Debug enables verbose logging of the authorization layer.
	Debug bool
}

// OAuthHTTPServer wraps the MCP HTTP handler with OAuth 2.1 authentication:
// it serves the authorization endpoints, validates bearer tokens on the MCP
// endpoint, and injects the authenticated identity into the request context
// for the per-tool authentication layer.
type OAuthHTTPServer struct {
	cfg          OAuthServerConfig
	oauthServer  *oauth.Server
	oauthHandler *oauth.Handler
	tokenStore   storage.TokenStore
	httpServer   *http.Server
	mcpHandler   http.Handler
	serverCtx    *ServerContext
	logger       *slog.Logger
}

// NewOAuthHTTPServer creates the OAuth-protected HTTP front for the MCP
// handler. The server context supplies the session store and session id
// manager the identity middleware feeds.
func NewOAuthHTTPServer(cfg OAuthServerConfig, mcpHandler http.Handler, serverCtx *ServerContext, logger *slog.Logger) (*OAuthHTTPServer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := validateHTTPSRequirement(cfg.BaseURL); err != nil {
		return nil, err
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("google client id and secret are required for the OAuth 2.1 transport")
	}

	oauthServer, tokenStore, err := createOAuthServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	return &OAuthHTTPServer{
		cfg:          cfg,
		oauthServer:  oauthServer,
		oauthHandler: oauth.NewHandler(oauthServer, oauthServer.Logger),
		tokenStore:   tokenStore,
		mcpHandler:   mcpHandler,
		serverCtx:    serverCtx,
		logger:       logger,
	}, nil
}

// CreateMux builds the HTTP mux: OAuth 2.1 endpoints, health probes, and the
// token-protected MCP endpoint, wrapped with request metrics.
func (s *OAuthHTTPServer) CreateMux() http.Handler {
	mux := http.NewServeMux()

	health := NewHealthChecker(s.serverCtx)
	health.RegisterHealthEndpoints(mux)

	s.setupOAuthRoutes(mux)
	s.setupMCPRoutes(mux)

	return s.requestMetrics(mux)
}

// requestMetrics records the request counter and latency histogram for every
// request when instrumentation is configured. Paths are folded onto the route
// table so the path label stays bounded.
func (s *OAuthHTTPServer) requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provider := s.serverCtx.Instrumentation()
		if provider == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		provider.Metrics().RecordHTTPRequest(r.Context(), r.Method,
			instrumentation.NormalizeHTTPPath(r.URL.Path), rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status code. Flush is forwarded so
// streamable HTTP responses keep working behind the wrapper.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// setupOAuthRoutes registers the OAuth 2.1 endpoints.
func (s *OAuthHTTPServer) setupOAuthRoutes(mux *http.ServeMux) {
	// Protected Resource Metadata (RFC 9728)
	mux.HandleFunc("/.well-known/oauth-protected-resource", s.oauthHandler.ServeProtectedResourceMetadata)

	// Authorization Server Metadata (RFC 8414)
	mux.HandleFunc("/.well-known/oauth-authorization-server", s.oauthHandler.ServeAuthorizationServerMetadata)

	// Dynamic Client Registration (RFC 7591)
	mux.HandleFunc("/oauth/register", s.oauthHandler.ServeClientRegistration)

	mux.HandleFunc("/oauth/authorize", s.oauthHandler.ServeAuthorization)
	mux.HandleFunc("/oauth/token", s.oauthHandler.ServeToken)
	mux.HandleFunc("/oauth/callback", s.oauthHandler.ServeCallback)

	// Token Revocation (RFC 7009) and Introspection (RFC 7662)
	mux.HandleFunc("/oauth/revoke", s.oauthHandler.ServeTokenRevocation)
	mux.HandleFunc("/oauth/introspect", s.oauthHandler.ServeTokenIntrospection)

	s.logger.Info("registered OAuth 2.1 endpoints", slog.String("issuer", s.cfg.BaseURL))
}

// setupMCPRoutes mounts the MCP endpoint behind token validation and the
// identity injector.
func (s *OAuthHTTPServer) setupMCPRoutes(mux *http.ServeMux) {
	injector := s.identityInjector(s.mcpHandler)
	mux.Handle("/mcp", s.oauthHandler.ValidateToken(injector))
	mux.Handle("/mcp/", s.oauthHandler.ValidateToken(injector))
}

// identityInjector translates the validated bearer token into the ambient
// authentication state the per-tool layer reads: principal, session id and
// access token on the request context, plus a refreshed session-store entry
// so credential lookups inside the call can succeed.
func (s *OAuthHTTPServer) identityInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userInfo, ok := oauth.UserInfoFromContext(ctx)
		if !ok || userInfo == nil || userInfo.Email == "" {
			// ValidateToken let the request through without an identity;
			// downstream checks will deny anything that needs one.
			s.logger.Debug("no authenticated identity on request")
			next.ServeHTTP(w, r)
			return
		}

		sessionID := s.serverCtx.SessionIDs().SessionIDForRequest(r)
		s.serverCtx.SessionIDs().BindUser(sessionID, userInfo.Email)

		accessToken := &auth.AccessToken{
			Raw:    BearerToken(r),
			Claims: map[string]any{"email": userInfo.Email},
		}

		// The upstream Google token carries the actually granted scopes;
		// surface them so scope checks run against real grants instead of
		// assumptions.
		if stored, err := s.tokenStore.GetToken(ctx, userInfo.Email); err == nil && stored != nil {
			scopes := scopesFromToken(stored)
			accessToken.Scopes = scopes
			if sessions := s.serverCtx.Sessions(); sessions != nil {
				sessions.SaveCredential(userInfo.Email, &auth.Credential{
					Token:     stored,
					UserEmail: userInfo.Email,
					Scopes:    scopes,
				}, sessionID)
			}
		} else if err != nil {
			s.logger.Debug("no upstream token for authenticated user",
				logging.UserHash(userInfo.Email), logging.Err(err))
		}

		ctx = auth.WithPrincipal(ctx, userInfo.Email, config.VersionOAuth21)
		ctx = auth.WithSessionID(ctx, sessionID)
		ctx = auth.WithAccessToken(ctx, accessToken)

		s.logger.Debug("injected authenticated identity",
			logging.UserHash(userInfo.Email), logging.Session(sessionID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start runs the HTTP server until the listener fails or Shutdown is called.
func (s *OAuthHTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.CreateMux(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger.Info("starting OAuth-protected MCP server",
		slog.String("addr", s.cfg.Addr), slog.String("base_url", s.cfg.BaseURL))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the OAuth server (rate limiters, storage cleanup) and the
// HTTP listener.
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	if s.oauthServer != nil {
		if err := s.oauthServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown OAuth server: %w", err)
		}
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// TokenStore exposes the upstream Google token store.
func (s *OAuthHTTPServer) TokenStore() storage.TokenStore {
	return s.tokenStore
}

// createOAuthServer assembles the mcp-oauth server: Google provider,
// in-memory storage, PKCE-required configuration, audit logging and rate
// limiting.
func createOAuthServer(cfg OAuthServerConfig, logger *slog.Logger) (*oauth.Server, storage.TokenStore, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = append([]string(nil), auth.BaseScopes...)
	}

	provider, err := google.NewProvider(&google.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/callback",
		Scopes:       scopes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Google provider: %w", err)
	}

	memStore := memory.New()

	serverConfig := &oauthserver.Config{
		Issuer:                        cfg.BaseURL,
		RefreshTokenTTL:               int64(DefaultRefreshTokenTTL.Seconds()),
		AllowRefreshTokenRotation:     true,
		RequirePKCE:                   true,
		AllowPKCEPlain:                false,
		AllowPublicClientRegistration: cfg.AllowPublicClientRegistration,
		RegistrationAccessToken:       cfg.RegistrationAccessToken,
		MaxClientsPerIP:               DefaultMaxClientsPerIP,
	}

	oauthSrv, err := oauth.NewServer(provider, memStore, memStore, memStore, serverConfig, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	auditor := security.NewAuditor(logger, true)
	oauthSrv.SetAuditor(auditor)

	ipRateLimiter := security.NewRateLimiter(DefaultIPRateLimit, DefaultIPBurst, logger)
	oauthSrv.SetRateLimiter(ipRateLimiter)

	userRateLimiter := security.NewRateLimiter(DefaultUserRateLimit, DefaultUserBurst, logger)
	oauthSrv.SetUserRateLimiter(userRateLimiter)

	return oauthSrv, memStore, nil
}

// scopesFromToken extracts the granted scopes Google reports on its token
// response (the "scope" extra field, space separated).
func scopesFromToken(tok *oauth2.Token) []string {
	raw, _ := tok.Extra("scope").(string)
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

// validateHTTPSRequirement enforces the OAuth 2.1 HTTPS rule: HTTP is
// acceptable only on loopback hosts.
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for non-loopback hosts (got %s)", baseURL)
		}
		return nil
	default:
		return fmt.Errorf("invalid URL scheme %q: must be http (loopback only) or https", u.Scheme)
	}
}
