package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
)

// RegisterUserResources registers the user://profile and
// user://gmail/settings resources. Both resolve the calling identity from
// the request's auth context and go through the same credential acquisition
// path the tools use.
func RegisterUserResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Profile of the authenticated Google account: email address, history id and message/thread totals."),
			mcp.WithMIMEType("application/json"),
		),
		userProfileHandler(sc),
	)

	s.AddResource(
		mcp.NewResource(
			"user://gmail/settings",
			"Gmail Settings",
			mcp.WithResourceDescription("Gmail vacation responder settings for the authenticated account."),
			mcp.WithMIMEType("application/json"),
		),
		gmailSettingsHandler(sc),
	)

	return nil
}

func userProfileHandler(sc *server.ServerContext) mcpserver.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		handle, userEmail, err := sc.Authenticator().HandleFor(ctx,
			auth.ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}},
			"user_profile_resource")
		if err != nil {
			return nil, err
		}

		svc, err := handle.Gmail(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating Gmail client: %w", err)
		}
		profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetching Gmail profile: %w", err)
		}

		payload := map[string]any{
			"emailAddress":  profile.EmailAddress,
			"historyId":     profile.HistoryId,
			"messagesTotal": profile.MessagesTotal,
			"threadsTotal":  profile.ThreadsTotal,
			"account":       userEmail,
		}
		return jsonResource(request.Params.URI, payload)
	}
}

func gmailSettingsHandler(sc *server.ServerContext) mcpserver.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		handle, _, err := sc.Authenticator().HandleFor(ctx,
			auth.ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}},
			"gmail_settings_resource")
		if err != nil {
			return nil, err
		}

		svc, err := handle.Gmail(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating Gmail client: %w", err)
		}
		vacation, err := svc.Users.Settings.GetVacation("me").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetching vacation settings: %w", err)
		}

		payload := map[string]any{
			"enableAutoReply":    vacation.EnableAutoReply,
			"responseSubject":    vacation.ResponseSubject,
			"responseBodyHtml":   vacation.ResponseBodyHtml,
			"restrictToContacts": vacation.RestrictToContacts,
			"restrictToDomain":   vacation.RestrictToDomain,
			"startTime":          vacation.StartTime,
			"endTime":            vacation.EndTime,
		}
		return jsonResource(request.Params.URI, payload)
	}
}

func jsonResource(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding resource payload: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
