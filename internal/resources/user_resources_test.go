package resources

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/google"
	srv "workspacemcp/internal/server"
	"workspacemcp/internal/session"
)

func newTestServerContext(t *testing.T) *srv.ServerContext {
	t.Helper()

	cfg := &config.OAuth{
		OAuth21Enabled: true,
		Transport:      config.TransportStreamableHTTP,
		GoogleClientID: "client-id",
	}
	sessions := session.NewStore()
	authn := auth.New(cfg, auth.Deps{
		Store:     sessions,
		Exchanger: sessions,
		Factory:   google.NewClientFactory(cfg),
	})
	sc := srv.NewServerContext(context.Background(), cfg, authn, sessions, srv.NewSessionIDManager())
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterUserResources(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.1")
	sc := newTestServerContext(t)

	err := RegisterUserResources(s, sc)
	require.NoError(t, err)
}

func TestUserProfileRequiresAuthentication(t *testing.T) {
	sc := newTestServerContext(t)
	handler := userProfileHandler(sc)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "user://profile"

	_, err := handler(context.Background(), req)
	require.Error(t, err)

	var authErr *auth.Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, auth.ReasonMissingPrincipal, authErr.Reason)
}

func TestJSONResource(t *testing.T) {
	contents, err := jsonResource("user://profile", map[string]any{"emailAddress": "user@example.com"})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "user://profile", text.URI)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, "user@example.com")
}
