package slides_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/slides/v1"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

// RegisterSlidesTools registers all Slides tools with the MCP server.
func RegisterSlidesTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	get, err := authn.Require(
		auth.ServiceSpec{Type: "slides", Scopes: []string{"slides_read"}},
		auth.Operation{
			Name:        "get_presentation",
			Description: "Get the structure and text content of a Google Slides presentation",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "presentation_id", Description: "The presentation ID", Required: true},
			},
			Run: runGetPresentation,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_presentation: %w", err)
	}

	create, err := authn.Require(
		auth.ServiceSpec{Type: "slides", Scopes: []string{"slides"}},
		auth.Operation{
			Name:        "create_presentation",
			Description: "Create a new empty Google Slides presentation",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "title", Description: "Presentation title", Required: true},
			},
			Run: runCreatePresentation,
		})
	if err != nil {
		return fmt.Errorf("failed to build create_presentation: %w", err)
	}

	common.RegisterWithService(s, sc, "slides", "get", get)
	common.RegisterWithService(s, sc, "slides", "create", create)
	return nil
}

func runGetPresentation(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	presentationID := common.StringArg(args, "presentation_id")
	if presentationID == "" {
		return mcp.NewToolResultError("presentation_id is required"), nil
	}

	client, err := svc.Slides(ctx)
	if err != nil {
		return nil, err
	}

	pres, err := client.Presentations.Get(presentationID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get presentation: %w", err)
	}

	type slideSummary struct {
		ObjectID string `json:"objectId"`
		Text     string `json:"text,omitempty"`
	}
	slideList := make([]slideSummary, 0, len(pres.Slides))
	for _, slide := range pres.Slides {
		slideList = append(slideList, slideSummary{
			ObjectID: slide.ObjectId,
			Text:     slideText(slide),
		})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"presentationId": pres.PresentationId,
		"title":          pres.Title,
		"slides":         slideList,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runCreatePresentation(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	title := common.StringArg(args, "title")
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	client, err := svc.Slides(ctx)
	if err != nil {
		return nil, err
	}

	created, err := client.Presentations.Create(&slides.Presentation{Title: title}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create presentation: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Presentation created: %s (id: %s)",
		created.Title, created.PresentationId)), nil
}

// slideText collects the text runs of all shapes on one slide.
func slideText(slide *slides.Page) string {
	var b strings.Builder
	for _, el := range slide.PageElements {
		if el.Shape == nil || el.Shape.Text == nil {
			continue
		}
		for _, te := range el.Shape.Text.TextElements {
			if te.TextRun != nil {
				b.WriteString(te.TextRun.Content)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
