package gmail_tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/gmail/v1"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/batch"
	"workspacemcp/internal/tools/common"
)

const defaultPageSize = 10

// RegisterGmailTools registers all Gmail tools with the MCP server.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	search, err := authn.Require(
		auth.ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}},
		auth.Operation{
			Name:        "search_gmail_messages",
			Description: "Search Gmail messages with a Gmail query string (same syntax as the Gmail search box)",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "query", Description: "Gmail search query, e.g. 'from:jane is:unread'", Required: true},
				{Name: "page_size", Type: auth.TypeNumber, Description: "Maximum number of messages to return (default 10)"},
			},
			Run: runSearchMessages,
		})
	if err != nil {
		return fmt.Errorf("failed to build search_gmail_messages: %w", err)
	}

	get, err := authn.Require(
		auth.ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}},
		auth.Operation{
			Name:        "get_gmail_message_content",
			Description: "Retrieve the full content (headers and plain-text body) of a Gmail message",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "message_id", Description: "The Gmail message ID", Required: true},
			},
			Run: runGetMessageContent,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_gmail_message_content: %w", err)
	}

	getBatch, err := authn.Require(
		auth.ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}},
		auth.Operation{
			Name:        "get_gmail_messages_content_batch",
			Description: "Retrieve the content of several Gmail messages in one call",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "message_ids", Description: "A message ID or a JSON array of message IDs", Required: true},
			},
			Run: runGetMessagesBatch,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_gmail_messages_content_batch: %w", err)
	}

	send, err := authn.Require(
		auth.ServiceSpec{Type: "gmail", Scopes: []string{"gmail_send"}},
		auth.Operation{
			Name:        "send_gmail_message",
			Description: "Send an email from the authenticated user's Gmail account",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "to", Description: "Recipient email address", Required: true},
				{Name: "subject", Description: "Email subject", Required: true},
				{Name: "body", Description: "Plain-text email body", Required: true},
				{Name: "cc", Description: "Optional CC address"},
			},
			Run: runSendMessage,
		})
	if err != nil {
		return fmt.Errorf("failed to build send_gmail_message: %w", err)
	}

	common.RegisterWithService(s, sc, "gmail", "search", search)
	common.RegisterWithService(s, sc, "gmail", "get", get)
	common.RegisterWithService(s, sc, "gmail", "get_batch", getBatch)
	common.RegisterWithService(s, sc, "gmail", "send", send)
	return nil
}

// messageSummary is the search result shape returned to the client.
type messageSummary struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Snippet  string `json:"snippet,omitempty"`
}

func runSearchMessages(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	query := common.StringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	pageSize := common.IntArg(args, "page_size", defaultPageSize)

	client, err := svc.Gmail(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Users.Messages.List("me").Q(query).MaxResults(pageSize).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	summaries := make([]messageSummary, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		summaries = append(summaries, messageSummary{ID: m.Id, ThreadID: m.ThreadId})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"query":    query,
		"messages": summaries,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runGetMessageContent(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	messageID := common.StringArg(args, "message_id")
	if messageID == "" {
		return mcp.NewToolResultError("message_id is required"), nil
	}

	client, err := svc.Gmail(ctx)
	if err != nil {
		return nil, err
	}

	content, err := fetchMessageContent(ctx, client, messageID)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(content), nil
}

func runGetMessagesBatch(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	ids, err := batch.ParseStringOrArray(args["message_ids"], "message_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := svc.Gmail(ctx)
	if err != nil {
		return nil, err
	}

	results := batch.Run(ids, func(id string) (string, error) {
		return fetchMessageContent(ctx, client, id)
	})
	return mcp.NewToolResultText(results.JSON()), nil
}

// fetchMessageContent retrieves one message and renders its headers and
// plain-text body.
func fetchMessageContent(ctx context.Context, client *gmail.Service, messageID string) (string, error) {
	msg, err := client.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	var subject, from, to, date string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				subject = h.Value
			case "From":
				from = h.Value
			case "To":
				to = h.Value
			case "Date":
				date = h.Value
			}
		}
	}

	body := extractPlainText(msg.Payload)
	return fmt.Sprintf("Subject: %s\nFrom: %s\nTo: %s\nDate: %s\n\n%s",
		subject, from, to, date, body), nil
}

// extractPlainText walks the MIME tree looking for the first text/plain part.
// A flat message body wins over nested parts.
func extractPlainText(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" && payload.MimeType == "text/plain" {
		return decodeBody(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
	}
	// multipart/alternative may nest one level deeper
	for _, part := range payload.Parts {
		if text := extractPlainText(part); text != "" {
			return text
		}
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}
