package gmail_tools

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

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

func TestRegisterGmailTools(t *testing.T) {
	s := server.NewMCPServer("test", "0.0.1")
	sc := newTestServerContext(t)

	err := RegisterGmailTools(s, sc)
	require.NoError(t, err)
}

func encode(s string) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(s))
}

func TestExtractPlainTextFlatBody(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: encode("hello")},
	}
	assert.Equal(t, "hello", extractPlainText(payload))
}

func TestExtractPlainTextMultipart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<b>hi</b>")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("hi")}},
		},
	}
	assert.Equal(t, "hi", extractPlainText(payload))
}

func TestExtractPlainTextNested(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("nested")}},
				},
			},
		},
	}
	assert.Equal(t, "nested", extractPlainText(payload))
}

func TestExtractPlainTextEmpty(t *testing.T) {
	assert.Equal(t, "", extractPlainText(nil))
	assert.Equal(t, "", extractPlainText(&gmail.MessagePart{MimeType: "text/html"}))
}

func TestBuildRawMessage(t *testing.T) {
	raw := buildRawMessage("to@example.com", "", "Subject line", "Body text")

	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(raw)
	require.NoError(t, err)

	msg := string(decoded)
	assert.Contains(t, msg, "To: to@example.com\r\n")
	assert.Contains(t, msg, "Subject: Subject line\r\n")
	assert.Contains(t, msg, "\r\n\r\nBody text")
	assert.NotContains(t, msg, "Cc:")
}

func TestBuildRawMessageWithCC(t *testing.T) {
	raw := buildRawMessage("to@example.com", "cc@example.com", "s", "b")

	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(raw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Cc: cc@example.com\r\n")
}
