package contacts_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/people/v1"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

const defaultContactCount = 25

// RegisterContactsTools registers all Contacts tools with the MCP server.
func RegisterContactsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	search, err := authn.Require(
		auth.ServiceSpec{Type: "people", Scopes: []string{"contacts_read"}},
		auth.Operation{
			Name:        "search_contacts",
			Description: "Search the authenticated user's contacts by name or email",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "query", Description: "Search query matched against names and email addresses", Required: true},
				{Name: "page_size", Type: auth.TypeNumber, Description: "Maximum number of contacts (default 25)"},
			},
			Run: runSearchContacts,
		})
	if err != nil {
		return fmt.Errorf("failed to build search_contacts: %w", err)
	}

	common.RegisterWithService(s, sc, "people", "search", search)
	return nil
}

type contactSummary struct {
	ResourceName string   `json:"resourceName"`
	Name         string   `json:"name,omitempty"`
	Emails       []string `json:"emails,omitempty"`
}

func runSearchContacts(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	query := common.StringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	pageSize := common.IntArg(args, "page_size", defaultContactCount)

	client, err := svc.People(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.People.SearchContacts().
		Query(query).
		PageSize(pageSize).
		ReadMask("names,emailAddresses").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}

	contacts := make([]contactSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Person == nil {
			continue
		}
		contacts = append(contacts, summarizePerson(r.Person))
	}

	out, _ := json.MarshalIndent(map[string]any{
		"query":    query,
		"contacts": contacts,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func summarizePerson(p *people.Person) contactSummary {
	cs := contactSummary{ResourceName: p.ResourceName}
	if len(p.Names) > 0 {
		cs.Name = p.Names[0].DisplayName
	}
	for _, e := range p.EmailAddresses {
		cs.Emails = append(cs.Emails, e.Value)
	}
	return cs
}
