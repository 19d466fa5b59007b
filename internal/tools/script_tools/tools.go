package script_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

// RegisterScriptTools registers all Apps Script tools with the MCP server.
func RegisterScriptTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	getProject, err := authn.Require(
		auth.ServiceSpec{Type: "script", Scopes: []string{"script_readonly"}},
		auth.Operation{
			Name:        "get_script_project",
			Description: "Get the metadata and source files of an Apps Script project",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "script_id", Description: "The script project ID", Required: true},
			},
			Run: runGetProject,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_script_project: %w", err)
	}

	common.RegisterWithService(s, sc, "script", "get_project", getProject)
	return nil
}

func runGetProject(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	scriptID := common.StringArg(args, "script_id")
	if scriptID == "" {
		return mcp.NewToolResultError("script_id is required"), nil
	}

	client, err := svc.Script(ctx)
	if err != nil {
		return nil, err
	}

	project, err := client.Projects.Get(scriptID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get script project: %w", err)
	}

	content, err := client.Projects.GetContent(scriptID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get script content: %w", err)
	}

	type fileSummary struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	files := make([]fileSummary, 0, len(content.Files))
	for _, f := range content.Files {
		files = append(files, fileSummary{Name: f.Name, Type: f.Type})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"scriptId":   project.ScriptId,
		"title":      project.Title,
		"createTime": project.CreateTime,
		"updateTime": project.UpdateTime,
		"files":      files,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
