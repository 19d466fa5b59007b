package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/google"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/logging"
	"workspacemcp/internal/resources"
	"workspacemcp/internal/server"
	"workspacemcp/internal/session"
	"workspacemcp/internal/tools/auth_tools"
	"workspacemcp/internal/tools/calendar_tools"
	"workspacemcp/internal/tools/chat_tools"
	"workspacemcp/internal/tools/contacts_tools"
	"workspacemcp/internal/tools/docs_tools"
	"workspacemcp/internal/tools/drive_tools"
	"workspacemcp/internal/tools/forms_tools"
	"workspacemcp/internal/tools/gmail_tools"
	"workspacemcp/internal/tools/script_tools"
	"workspacemcp/internal/tools/search_tools"
	"workspacemcp/internal/tools/sheets_tools"
	"workspacemcp/internal/tools/slides_tools"
	"workspacemcp/internal/tools/tasks_tools"
)

// serveOptions collects the serve command's flag values.
type serveOptions struct {
	Debug              bool
	Transport          string
	HTTPAddr           string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	OAuth21            bool

	AllowPublicClientRegistration bool
	RegistrationAccessToken       string

	MetricsEnabled bool
	MetricsAddr    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Google Workspace
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport behind OAuth 2.1

OAuth Configuration:
  HTTP Transport:
    Base URL (required for deployed instances):
      --base-url https://your-domain.com OR MCP_BASE_URL env var
      Auto-detected for localhost (development only)

    Google OAuth client (required):
      --google-client-id and --google-client-secret flags
      OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars

  STDIO Transport:
    Credentials come from per-account token files created with the auth
    command or the start_google_auth / complete_google_auth tools.
    GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars are needed for the
    authorization flow and token refresh.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.Transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Public base URL for OAuth (HTTP transport only). Required for deployed instances. Can also use MCP_BASE_URL env var.")
	cmd.Flags().StringVar(&opts.GoogleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.GoogleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&opts.OAuth21, "oauth21", true, "Enable the OAuth 2.1 session flow. When disabled every call uses the legacy file-token flow. Can also use WORKSPACE_MCP_OAUTH21 env var.")

	cmd.Flags().BoolVar(&opts.AllowPublicClientRegistration, "oauth-allow-public-registration", true, "Allow unauthenticated dynamic client registration (RFC 7591). MCP clients generally require this.")
	cmd.Flags().StringVar(&opts.RegistrationAccessToken, "oauth-registration-token", "", "Registration access token required for client registration when public registration is disabled.")

	cmd.Flags().BoolVar(&opts.MetricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (HTTP transport only).")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address.")

	return cmd
}

func runServe(opts serveOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(opts.Debug)

	cfg := &config.OAuth{
		OAuth21Enabled:     opts.OAuth21,
		Transport:          opts.Transport,
		GoogleClientID:     opts.GoogleClientID,
		GoogleClientSecret: opts.GoogleClientSecret,
	}
	cfg.LoadOAuthFromEnv()
	if opts.Transport == config.TransportStreamableHTTP {
		cfg.BaseURL = resolveBaseURL(opts.BaseURL, opts.HTTPAddr, logger)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	sessions := session.NewStore()
	sessionIDs := server.NewSessionIDManager()
	authn := auth.New(cfg, auth.Deps{
		Store:     sessions,
		Exchanger: sessions,
		Legacy:    google.NewFileBroker(cfg, logger),
		Factory:   google.NewClientFactory(cfg),
		Logger:    logger,
	})

	serverContext := server.NewServerContext(shutdownCtx, cfg, authn, sessions, sessionIDs)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	if provider.Enabled() {
		serverContext.SetInstrumentation(provider,
			instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	mcpSrv := mcpserver.NewMCPServer("workspacemcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch opts.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, opts, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{"Auth", func() error { return auth_tools.RegisterAuthTools(mcpSrv, sc) }},
		{"Gmail", func() error { return gmail_tools.RegisterGmailTools(mcpSrv, sc) }},
		{"Drive", func() error { return drive_tools.RegisterDriveTools(mcpSrv, sc) }},
		{"Calendar", func() error { return calendar_tools.RegisterCalendarTools(mcpSrv, sc) }},
		{"Docs", func() error { return docs_tools.RegisterDocsTools(mcpSrv, sc) }},
		{"Sheets", func() error { return sheets_tools.RegisterSheetsTools(mcpSrv, sc) }},
		{"Chat", func() error { return chat_tools.RegisterChatTools(mcpSrv, sc) }},
		{"Forms", func() error { return forms_tools.RegisterFormsTools(mcpSrv, sc) }},
		{"Slides", func() error { return slides_tools.RegisterSlidesTools(mcpSrv, sc) }},
		{"Tasks", func() error { return tasks_tools.RegisterTasksTools(mcpSrv, sc) }},
		{"Contacts", func() error { return contacts_tools.RegisterContactsTools(mcpSrv, sc) }},
		{"Custom Search", func() error { return search_tools.RegisterSearchTools(mcpSrv, sc) }},
		{"Apps Script", func() error { return script_tools.RegisterScriptTools(mcpSrv, sc) }},
		{"User Resources", func() error { return resources.RegisterUserResources(mcpSrv, sc) }},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider, opts serveOptions, logger *slog.Logger) error {
	var metricsServer *server.MetricsServer
	if opts.MetricsEnabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.MetricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	cfg := sc.OAuthConfig()
	oauthServer, err := server.NewOAuthHTTPServer(server.OAuthServerConfig{
		BaseURL:                       cfg.BaseURL,
		GoogleClientID:                cfg.GoogleClientID,
		GoogleClientSecret:            cfg.GoogleClientSecret,
		AllowPublicClientRegistration: opts.AllowPublicClientRegistration,
		RegistrationAccessToken:       opts.RegistrationAccessToken,
		Addr:                          opts.HTTPAddr,
		Debug:                         opts.Debug,
	}, mcpserver.NewStreamableHTTPServer(mcpSrv), sc, logger)
	if err != nil {
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	logger.Info("starting streamable HTTP server",
		slog.String("addr", opts.HTTPAddr),
		slog.String("base_url", cfg.BaseURL),
		slog.String("mcp_endpoint", "/mcp"),
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := oauthServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := oauthServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server stopped")
	return nil
}

// resolveBaseURL determines the externally reachable base URL for the OAuth
// issuer: flag value, MCP_BASE_URL env var, or localhost auto-detection for
// development.
func resolveBaseURL(baseURL, addr string, logger *slog.Logger) string {
	if baseURL == "" {
		baseURL = os.Getenv("MCP_BASE_URL")
	}
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/")
	}

	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	} else {
		baseURL = "http://" + addr
	}
	if logger != nil {
		logger.Info("no base URL configured, using auto-detected",
			slog.String("base_url", baseURL))
	}
	return baseURL
}
