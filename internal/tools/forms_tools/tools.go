package forms_tools

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

// RegisterFormsTools registers all Forms tools with the MCP server.
func RegisterFormsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	get, err := authn.Require(
		auth.ServiceSpec{Type: "forms", Scopes: []string{"forms_read"}},
		auth.Operation{
			Name:        "get_form",
			Description: "Get the structure (title, questions) of a Google Form",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "form_id", Description: "The form ID", Required: true},
			},
			Run: runGetForm,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_form: %w", err)
	}

	responses, err := authn.Require(
		auth.ServiceSpec{Type: "forms", Scopes: []string{"forms_responses_read"}},
		auth.Operation{
			Name:        "list_form_responses",
			Description: "List the submitted responses of a Google Form",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "form_id", Description: "The form ID", Required: true},
			},
			Run: runListResponses,
		})
	if err != nil {
		return fmt.Errorf("failed to build list_form_responses: %w", err)
	}

	common.RegisterWithService(s, sc, "forms", "get", get)
	common.RegisterWithService(s, sc, "forms", "list_responses", responses)
	return nil
}

func runGetForm(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	formID := common.StringArg(args, "form_id")
	if formID == "" {
		return mcp.NewToolResultError("form_id is required"), nil
	}

	client, err := svc.Forms(ctx)
	if err != nil {
		return nil, err
	}

	form, err := client.Forms.Get(formID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	type question struct {
		ItemID string `json:"itemId"`
		Title  string `json:"title"`
	}
	questions := make([]question, 0, len(form.Items))
	for _, item := range form.Items {
		questions = append(questions, question{ItemID: item.ItemId, Title: item.Title})
	}

	var title string
	if form.Info != nil {
		title = form.Info.Title
	}

	out, _ := json.MarshalIndent(map[string]any{
		"formId":       form.FormId,
		"title":        title,
		"responderUri": form.ResponderUri,
		"items":        questions,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runListResponses(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	formID := common.StringArg(args, "form_id")
	if formID == "" {
		return mcp.NewToolResultError("form_id is required"), nil
	}

	client, err := svc.Forms(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Forms.Responses.List(formID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	type responseSummary struct {
		ResponseID string `json:"responseId"`
		Submitted  string `json:"lastSubmittedTime,omitempty"`
		Answers    int    `json:"answers"`
	}
	summaries := make([]responseSummary, 0, len(resp.Responses))
	for _, r := range resp.Responses {
		summaries = append(summaries, responseSummary{
			ResponseID: r.ResponseId,
			Submitted:  r.LastSubmittedTime,
			Answers:    len(r.Answers),
		})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"formId":    formID,
		"responses": summaries,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
