package search_tools

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

const defaultResultCount = 10

// RegisterSearchTools registers the Custom Search tool with the MCP server.
func RegisterSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	search, err := authn.Require(
		auth.ServiceSpec{Type: "customsearch", Scopes: []string{"customsearch"}},
		auth.Operation{
			Name:        "search_custom",
			Description: "Run a query against a Programmable Search Engine",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "query", Description: "Search query", Required: true},
				{Name: "search_engine_id", Description: "Programmable Search Engine ID (cx)", Required: true},
				{Name: "num", Type: auth.TypeNumber, Description: "Number of results (1-10, default 10)"},
			},
			Run: runSearch,
		})
	if err != nil {
		return fmt.Errorf("failed to build search_custom: %w", err)
	}

	common.RegisterWithService(s, sc, "customsearch", "query", search)
	return nil
}

func runSearch(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	query := common.StringArg(args, "query")
	engineID := common.StringArg(args, "search_engine_id")
	if query == "" || engineID == "" {
		return mcp.NewToolResultError("query and search_engine_id are required"), nil
	}
	num := common.IntArg(args, "num", defaultResultCount)
	if num < 1 || num > 10 {
		num = defaultResultCount
	}

	client, err := svc.CustomSearch(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Cse.List().Q(query).Cx(engineID).Num(num).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	type searchResult struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet,omitempty"`
	}
	results := make([]searchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, searchResult{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"query":   query,
		"results": results,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
