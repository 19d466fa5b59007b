package docs_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/docs/v1"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

// RegisterDocsTools registers all Docs tools with the MCP server.
func RegisterDocsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	get, err := authn.Require(
		auth.ServiceSpec{Type: "docs", Scopes: []string{"docs_read"}},
		auth.Operation{
			Name:        "get_doc_content",
			Description: "Read the text content of a Google Doc",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "document_id", Description: "The document ID", Required: true},
			},
			Run: runGetDocContent,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_doc_content: %w", err)
	}

	getWithMeta, err := authn.RequireMultiple(
		[]auth.ServiceSpec{
			{Type: "drive", Scopes: []string{"drive_read"}, ParamName: "drive_service"},
			{Type: "docs", Scopes: []string{"docs_read"}, ParamName: "docs_service"},
		},
		auth.MultiOperation{
			Name:        "get_doc_with_metadata",
			Description: "Read a Google Doc's text content together with its Drive metadata (owner, modified time, sharing link)",
			Params: []auth.Param{
				{Name: "drive_service"},
				{Name: "docs_service"},
				{Name: "document_id", Description: "The document ID", Required: true},
			},
			Run: runGetDocWithMetadata,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_doc_with_metadata: %w", err)
	}

	common.RegisterWithService(s, sc, "docs", "get", get)
	common.Register(s, sc, getWithMeta)
	return nil
}

func runGetDocContent(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	documentID := common.StringArg(args, "document_id")
	if documentID == "" {
		return mcp.NewToolResultError("document_id is required"), nil
	}

	client, err := svc.Docs(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := client.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Title: %s\n\n%s", doc.Title, extractDocText(doc))), nil
}

func runGetDocWithMetadata(ctx context.Context, handles map[string]*services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	documentID := common.StringArg(args, "document_id")
	if documentID == "" {
		return mcp.NewToolResultError("document_id is required"), nil
	}

	driveClient, err := handles["drive_service"].Drive(ctx)
	if err != nil {
		return nil, err
	}
	docsClient, err := handles["docs_service"].Docs(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := driveClient.Files.Get(documentID).
		Fields("id, name, modifiedTime, owners, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get document metadata: %w", err)
	}

	doc, err := docsClient.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get document content: %w", err)
	}

	var owner string
	if len(meta.Owners) > 0 {
		owner = meta.Owners[0].DisplayName
	}

	header := fmt.Sprintf("Title: %s\nOwner: %s\nModified: %s\nLink: %s",
		meta.Name, owner, meta.ModifiedTime, meta.WebViewLink)
	return mcp.NewToolResultText(header + "\n\n" + extractDocText(doc)), nil
}

// extractDocText flattens the document body into plain text. Tables and
// embedded objects are skipped; paragraph text elements are concatenated in
// order.
func extractDocText(doc *docs.Document) string {
	if doc.Body == nil {
		return ""
	}
	var b strings.Builder
	for _, el := range doc.Body.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun != nil {
				b.WriteString(pe.TextRun.Content)
			}
		}
	}
	return b.String()
}
