package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/calendar/v3"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
	"workspacemcp/internal/services"
	"workspacemcp/internal/tools/common"
)

const defaultEventCount = 25

// RegisterCalendarTools registers all Calendar tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	listCalendars, err := authn.Require(
		auth.ServiceSpec{Type: "calendar", Scopes: []string{"calendar_read"}},
		auth.Operation{
			Name:        "list_calendars",
			Description: "List the calendars the authenticated user has access to",
			Params: []auth.Param{
				{Name: "service"},
			},
			Run: runListCalendars,
		})
	if err != nil {
		return fmt.Errorf("failed to build list_calendars: %w", err)
	}

	listEvents, err := authn.Require(
		auth.ServiceSpec{Type: "calendar", Scopes: []string{"calendar_read"}},
		auth.Operation{
			Name:        "get_calendar_events",
			Description: "List upcoming events from a calendar within an optional time range",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "calendar_id", Description: "Calendar ID (default: 'primary')"},
				{Name: "time_min", Description: "RFC3339 lower bound (default: now)"},
				{Name: "time_max", Description: "RFC3339 upper bound"},
				{Name: "max_results", Type: auth.TypeNumber, Description: "Maximum number of events (default 25)"},
			},
			Run: runListEvents,
		})
	if err != nil {
		return fmt.Errorf("failed to build get_calendar_events: %w", err)
	}

	createEvent, err := authn.Require(
		auth.ServiceSpec{Type: "calendar", Scopes: []string{"calendar_events"}},
		auth.Operation{
			Name:        "create_calendar_event",
			Description: "Create an event in the authenticated user's calendar",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "summary", Description: "Event title", Required: true},
				{Name: "start", Description: "Event start, RFC3339", Required: true},
				{Name: "end", Description: "Event end, RFC3339", Required: true},
				{Name: "calendar_id", Description: "Calendar ID (default: 'primary')"},
				{Name: "description", Description: "Event description"},
				{Name: "location", Description: "Event location"},
			},
			Run: runCreateEvent,
		})
	if err != nil {
		return fmt.Errorf("failed to build create_calendar_event: %w", err)
	}

	common.RegisterWithService(s, sc, "calendar", "list_calendars", listCalendars)
	common.RegisterWithService(s, sc, "calendar", "list_events", listEvents)
	common.RegisterWithService(s, sc, "calendar", "create_event", createEvent)
	return nil
}

func runListCalendars(ctx context.Context, svc *services.Handle, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := svc.Calendar(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	type calSummary struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Primary bool   `json:"primary,omitempty"`
	}
	calendars := make([]calSummary, 0, len(resp.Items))
	for _, c := range resp.Items {
		calendars = append(calendars, calSummary{ID: c.Id, Summary: c.Summary, Primary: c.Primary})
	}

	out, _ := json.MarshalIndent(calendars, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

type eventSummary struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`
}

func runListEvents(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	calendarID := common.StringArgOr(args, "calendar_id", "primary")
	timeMin := common.StringArgOr(args, "time_min", time.Now().Format(time.RFC3339))
	timeMax := common.StringArg(args, "time_max")
	maxResults := common.IntArg(args, "max_results", defaultEventCount)

	client, err := svc.Calendar(ctx)
	if err != nil {
		return nil, err
	}

	call := client.Events.List(calendarID).
		TimeMin(timeMin).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime")
	if timeMax != "" {
		call = call.TimeMax(timeMax)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]eventSummary, 0, len(resp.Items))
	for _, e := range resp.Items {
		events = append(events, eventSummary{
			ID:       e.Id,
			Summary:  e.Summary,
			Start:    eventTime(e.Start),
			End:      eventTime(e.End),
			Location: e.Location,
			Status:   e.Status,
		})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"calendar": calendarID,
		"events":   events,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runCreateEvent(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	summary := common.StringArg(args, "summary")
	start := common.StringArg(args, "start")
	end := common.StringArg(args, "end")
	if summary == "" || start == "" || end == "" {
		return mcp.NewToolResultError("summary, start and end are required"), nil
	}
	calendarID := common.StringArgOr(args, "calendar_id", "primary")

	client, err := svc.Calendar(ctx)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: common.StringArg(args, "description"),
		Location:    common.StringArg(args, "location"),
		Start:       &calendar.EventDateTime{DateTime: start},
		End:         &calendar.EventDateTime{DateTime: end},
	}

	created, err := client.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event created: %s (id: %s, link: %s)",
		created.Summary, created.Id, created.HtmlLink)), nil
}

// eventTime renders either the dateTime or the all-day date of an event edge.
func eventTime(edt *calendar.EventDateTime) string {
	if edt == nil {
		return ""
	}
	if edt.DateTime != "" {
		return edt.DateTime
	}
	return edt.Date
}
