package chat_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/chat/v1"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

const defaultMessageCount = 25

// RegisterChatTools registers all Chat tools with the MCP server.
func RegisterChatTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	listSpaces, err := authn.Require(
		auth.ServiceSpec{Type: "chat", Scopes: []string{"chat_spaces"}},
		auth.Operation{
			Name:        "list_chat_spaces",
			Description: "List the Google Chat spaces the authenticated user belongs to",
			Params: []auth.Param{
				{Name: "service"},
			},
			Run: runListSpaces,
		})
	if err != nil {
		return fmt.Errorf("failed to build list_chat_spaces: %w", err)
	}

	getMessages, err := authn.Require(
		auth.ServiceSpec{Type: "chat", Scopes: []string{"chat_read"}},
		auth.Operation{
			Name:        "get_chat_messages",
			Description: "List recent messages from a Google Chat space",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "space_name", Description: "Space resource name, e.g. 'spaces/AAAA'", Required: true},
				{Name: "page_size", Type: auth.TypeNumber, Description: "Maximum number of messages (default 25)"},
			},
			Run: runGetMessages,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_chat_messages: %w", err)
	}

	sendMessage, err := authn.Require(
		auth.ServiceSpec{Type: "chat", Scopes: []string{"chat_write"}},
		auth.Operation{
			Name:        "send_chat_message",
			Description: "Send a text message to a Google Chat space",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "space_name", Description: "Space resource name, e.g. 'spaces/AAAA'", Required: true},
				{Name: "text", Description: "Message text", Required: true},
			},
			Run: runSendMessage,
		})
	if err != nil {
		return fmt.Errorf("failed to build send_chat_message: %w", err)
	}

	common.RegisterWithService(s, sc, "chat", "list_spaces", listSpaces)
	common.RegisterWithService(s, sc, "chat", "get_messages", getMessages)
	common.RegisterWithService(s, sc, "chat", "send_message", sendMessage)
	return nil
}

func runListSpaces(ctx context.Context, svc *services.Handle, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := svc.Chat(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Spaces.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}

	type spaceSummary struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		Type        string `json:"type,omitempty"`
	}
	spaces := make([]spaceSummary, 0, len(resp.Spaces))
	for _, sp := range resp.Spaces {
		spaces = append(spaces, spaceSummary{Name: sp.Name, DisplayName: sp.DisplayName, Type: sp.SpaceType})
	}

	out, _ := json.MarshalIndent(spaces, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runGetMessages(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	spaceName := common.StringArg(args, "space_name")
	if spaceName == "" {
		return mcp.NewToolResultError("space_name is required"), nil
	}
	pageSize := common.IntArg(args, "page_size", defaultMessageCount)

	client, err := svc.Chat(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Spaces.Messages.List(spaceName).PageSize(pageSize).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	type messageSummary struct {
		Name   string `json:"name"`
		Sender string `json:"sender,omitempty"`
		Time   string `json:"createTime,omitempty"`
		Text   string `json:"text"`
	}
	messages := make([]messageSummary, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ms := messageSummary{Name: m.Name, Time: m.CreateTime, Text: m.Text}
		if m.Sender != nil {
			ms.Sender = m.Sender.Name
		}
		messages = append(messages, ms)
	}

	out, _ := json.MarshalIndent(map[string]any{
		"space":    spaceName,
		"messages": messages,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runSendMessage(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	spaceName := common.StringArg(args, "space_name")
	text := common.StringArg(args, "text")
	if spaceName == "" || text == "" {
		return mcp.NewToolResultError("space_name and text are required"), nil
	}

	client, err := svc.Chat(ctx)
	if err != nil {
		return nil, err
	}

	sent, err := client.Spaces.Messages.Create(spaceName, &chat.Message{Text: text}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent to %s (name: %s)", spaceName, sent.Name)), nil
}
