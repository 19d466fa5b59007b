package auth_tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/google"
	"workspacemcp/internal/server"
	"workspacemcp/internal/tools/common"
)

// RegisterAuthTools registers the OAuth bootstrap tools with the MCP server.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	startTool := mcp.NewTool("start_google_auth",
		mcp.WithDescription("Start the Google OAuth flow for an account. Returns the authorization URL to open in a browser."),
		mcp.WithString("user_google_email",
			mcp.Required(),
			mcp.Description("The Google account email to authenticate"),
		),
		mcp.WithString("service_name",
			mcp.Description("Human-readable name of the service being authorized, e.g. 'Google Gmail'"),
		),
	)
	s.AddTool(startTool, mcpserver.ToolHandlerFunc(common.Instrument("start_google_auth", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleStartAuth(ctx, request, sc)
		})))

	completeTool := mcp.NewTool("complete_google_auth",
		mcp.WithDescription("Complete the Google OAuth flow with the authorization code shown after consent."),
		mcp.WithString("user_google_email",
			mcp.Required(),
			mcp.Description("The Google account email being authenticated"),
		),
		mcp.WithString("auth_code",
			mcp.Required(),
			mcp.Description("The authorization code from Google"),
		),
	)
	s.AddTool(completeTool, mcpserver.ToolHandlerFunc(common.Instrument("complete_google_auth", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCompleteAuth(ctx, request, sc)
		})))

	return nil
}

func handleStartAuth(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	userEmail := common.StringArg(args, "user_google_email")
	if userEmail == "" {
		return mcp.NewToolResultError("user_google_email is required"), nil
	}
	serviceName := common.StringArgOr(args, "service_name", "Google Workspace")

	cfg := sc.OAuthConfig()
	if cfg.GoogleClientID == "" {
		return mcp.NewToolResultError("Google OAuth client is not configured; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET"), nil
	}

	state := uuid.NewString()
	authURL := google.AuthURL(cfg, google.DefaultAuthScopes, state)

	result := fmt.Sprintf(`To authorize %s for %s:

1. Open this URL in your browser:

%s

2. Sign in as %s and grant the requested access.
3. Copy the authorization code Google shows you.
4. Run complete_google_auth with your email and the code.`,
		serviceName, userEmail, authURL, userEmail)
	return mcp.NewToolResultText(result), nil
}

func handleCompleteAuth(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	userEmail := common.StringArg(args, "user_google_email")
	authCode := common.StringArg(args, "auth_code")
	if userEmail == "" || authCode == "" {
		return mcp.NewToolResultError("user_google_email and auth_code are required"), nil
	}

	if err := google.ExchangeAndSave(ctx, sc.OAuthConfig(), userEmail, authCode, google.DefaultAuthScopes); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to complete authentication: %v", err)), nil
	}

	// A freshly stored credential counts as a recent authentication for the
	// session-store grace window.
	if sessions := sc.Sessions(); sessions != nil {
		if cred, err := google.LoadCredential(userEmail); err == nil {
			sessions.SaveCredential(userEmail, cred, auth.LastSessionID())
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Authentication complete for %s. You can now use the Google Workspace tools.", userEmail)), nil
}
