package drive_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/drive/v3"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

const defaultPageSize = 10

// Google Workspace MIME types that must be exported rather than downloaded.
var exportMimeTypes = map[string]string{
	"application/vnd.google-apps.document":     "text/plain",
	"application/vnd.google-apps.spreadsheet":  "text/csv",
	"application/vnd.google-apps.presentation": "text/plain",
}

// RegisterDriveTools registers all Drive tools with the MCP server.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	search, err := authn.Require(
		auth.ServiceSpec{Type: "drive", Scopes: []string{"drive_read"}},
		auth.Operation{
			Name:        "search_drive_files",
			Description: "Search Google Drive files with a Drive query string",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "query", Description: "Drive search query, e.g. \"name contains 'report'\"", Required: true},
				{Name: "page_size", Type: auth.TypeNumber, Description: "Maximum number of files to return (default 10)"},
			},
			Run: runSearchFiles,
		})
	if err != nil {
		return fmt.Errorf("failed to build search_drive_files: %w", err)
	}

	read, err := authn.Require(
		auth.ServiceSpec{Type: "drive", Scopes: []string{"drive_read"}},
		auth.Operation{
			Name:        "get_drive_file_content",
			Description: "Read the content of a Google Drive file. Native Workspace files are exported as text.",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "file_id", Description: "The Drive file ID", Required: true},
			},
			Run: runGetFileContent,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_drive_file_content: %w", err)
	}

	common.RegisterWithService(s, sc, "drive", "search", search)
	common.RegisterWithService(s, sc, "drive", "read", read)
	return nil
}

type fileSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Modified string `json:"modifiedTime,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

func runSearchFiles(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	query := common.StringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	pageSize := common.IntArg(args, "page_size", defaultPageSize)

	client, err := svc.Drive(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Files.List().
		Q(query).
		PageSize(pageSize).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}

	files := make([]fileSummary, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, fileSummary{
			ID:       f.Id,
			Name:     f.Name,
			MimeType: f.MimeType,
			Modified: f.ModifiedTime,
			Size:     f.Size,
		})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"query": query,
		"files": files,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runGetFileContent(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	fileID := common.StringArg(args, "file_id")
	if fileID == "" {
		return mcp.NewToolResultError("file_id is required"), nil
	}

	client, err := svc.Drive(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := client.Files.Get(fileID).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file metadata: %w", err)
	}

	content, err := fetchContent(ctx, client, meta)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(fmt.Sprintf("File: %s (%s)\n\n%s", meta.Name, meta.MimeType, content)), nil
}

// fetchContent downloads a binary file or exports a native Workspace file as
// text, depending on its MIME type.
func fetchContent(ctx context.Context, client *drive.Service, meta *drive.File) (string, error) {
	if exportType, ok := exportMimeTypes[meta.MimeType]; ok {
		resp, err := client.Files.Export(meta.Id, exportType).Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("failed to export file: %w", err)
		}
		defer resp.Body.Close()
		return readBody(resp.Body)
	}

	if !strings.HasPrefix(meta.MimeType, "text/") && meta.MimeType != "application/json" {
		return "", fmt.Errorf("file type %s is not readable as text", meta.MimeType)
	}

	resp, err := client.Files.Get(meta.Id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	return readBody(resp.Body)
}

func readBody(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}
	return string(data), nil
}
