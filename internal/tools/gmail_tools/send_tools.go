package gmail_tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"google.golang.org/api/gmail/v1"

	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

func runSendMessage(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	to := common.StringArg(args, "to")
	subject := common.StringArg(args, "subject")
	body := common.StringArg(args, "body")
	cc := common.StringArg(args, "cc")

	if to == "" || subject == "" || body == "" {
		return mcp.NewToolResultError("to, subject and body are required"), nil
	}

	client, err := svc.Gmail(ctx)
	if err != nil {
		return nil, err
	}

	raw := buildRawMessage(to, cc, subject, body)
	sent, err := client.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent to %s (id: %s)", to, sent.Id)), nil
}

// buildRawMessage assembles an RFC 2822 message and encodes it the way the
// Gmail API expects (base64url, no padding).
func buildRawMessage(to, cc, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if cc != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", cc)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(b.String()))
}
