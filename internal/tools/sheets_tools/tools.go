package sheets_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/sheets/v4"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

// RegisterSheetsTools registers all Sheets tools with the MCP server.
func RegisterSheetsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	read, err := authn.Require(
		auth.ServiceSpec{Type: "sheets", Scopes: []string{"sheets_read"}},
		auth.Operation{
			Name:        "read_sheet_values",
			Description: "Read a range of cells from a Google Sheet",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "spreadsheet_id", Description: "The spreadsheet ID", Required: true},
				{Name: "range", Description: "A1-notation range, e.g. 'Sheet1!A1:D10'", Required: true},
			},
			Run: runReadValues,
		})
	if err != nil {
		return fmt.Errorf("failed to build read_sheet_values: %w", err)
	}

	modify, err := authn.Require(
		auth.ServiceSpec{Type: "sheets", Scopes: []string{"sheets_write"}},
		auth.Operation{
			Name:        "modify_sheet_values",
			Description: "Write values into a range of a Google Sheet",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "spreadsheet_id", Description: "The spreadsheet ID", Required: true},
				{Name: "range", Description: "A1-notation range to write", Required: true},
				{Name: "values", Description: "JSON array of row arrays, e.g. [[\"a\",\"b\"],[\"c\",\"d\"]]", Required: true},
			},
			Run: runModifyValues,
		})
	if err != nil {
		return fmt.Errorf("failed to build modify_sheet_values: %w", err)
	}

	common.RegisterWithService(s, sc, "sheets", "read", read)
	common.RegisterWithService(s, sc, "sheets", "modify", modify)
	return nil
}

func runReadValues(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	spreadsheetID := common.StringArg(args, "spreadsheet_id")
	readRange := common.StringArg(args, "range")
	if spreadsheetID == "" || readRange == "" {
		return mcp.NewToolResultError("spreadsheet_id and range are required"), nil
	}

	client, err := svc.Sheets(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}

	out, _ := json.MarshalIndent(map[string]any{
		"range":  resp.Range,
		"values": resp.Values,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runModifyValues(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	spreadsheetID := common.StringArg(args, "spreadsheet_id")
	writeRange := common.StringArg(args, "range")
	if spreadsheetID == "" || writeRange == "" {
		return mcp.NewToolResultError("spreadsheet_id and range are required"), nil
	}

	values, err := parseValues(args["values"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := svc.Sheets(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Spreadsheets.Values.Update(spreadsheetID, writeRange, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to write values: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Updated %d cells in range %s",
		resp.UpdatedCells, resp.UpdatedRange)), nil
}

// parseValues accepts either a decoded JSON array of rows or a JSON string
// encoding one.
func parseValues(raw any) ([][]any, error) {
	switch v := raw.(type) {
	case string:
		var rows [][]any
		if err := json.Unmarshal([]byte(v), &rows); err != nil {
			return nil, fmt.Errorf("values must be a JSON array of row arrays: %v", err)
		}
		return rows, nil
	case []any:
		rows := make([][]any, 0, len(v))
		for i, item := range v {
			row, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("values[%d] must be an array", i)
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("values is required and must be an array of row arrays")
	}
}
