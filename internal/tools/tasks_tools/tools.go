package tasks_tools

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

// RegisterTasksTools registers all Tasks tools with the MCP server.
func RegisterTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authn := sc.Authenticator()

	listLists, err := authn.Require(
		auth.ServiceSpec{Type: "tasks", Scopes: []string{"tasks_read"}},
		auth.Operation{
			Name:        "list_task_lists",
			Description: "List the authenticated user's task lists",
			Params: []auth.Param{
				{Name: "service"},
			},
			Run: runListTaskLists,
		})
	if err != nil {
		return fmt.Errorf("failed to build list_task_lists: %w", err)
	}

	listTasks, err := authn.Require(
		auth.ServiceSpec{Type: "tasks", Scopes: []string{"tasks_read"}},
		auth.Operation{
			Name:        "list_tasks",
			Description: "List tasks in a task list",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "task_list_id", Description: "Task list ID (default: '@default')"},
				{Name: "show_completed", Type: auth.TypeBoolean, Description: "Include completed tasks (default false)"},
			},
			Run: runListTasks,
		})
	if err != nil {
		return fmt.Errorf("failed to build list_tasks: %w", err)
	}

	complete, err := authn.Require(
		auth.ServiceSpec{Type: "tasks", Scopes: []string{"tasks"}},
		auth.Operation{
			Name:        "complete_task",
			Description: "Mark a task as completed",
			Params: []auth.Param{
				{Name: "service"},
				{Name: "task_id", Description: "The task ID", Required: true},
				{Name: "task_list_id", Description: "Task list ID (default: '@default')"},
			},
			Run: runCompleteTask,
		})
	if err != nil {
		return fmt.Errorf("failed to build complete_task: %w", err)
	}

	common.RegisterWithService(s, sc, "tasks", "list_lists", listLists)
	common.RegisterWithService(s, sc, "tasks", "list", listTasks)
	common.RegisterWithService(s, sc, "tasks", "complete", complete)
	return nil
}

func runListTaskLists(ctx context.Context, svc *services.Handle, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := svc.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Tasklists.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}

	type listSummary struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	lists := make([]listSummary, 0, len(resp.Items))
	for _, l := range resp.Items {
		lists = append(lists, listSummary{ID: l.Id, Title: l.Title})
	}

	out, _ := json.MarshalIndent(lists, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runListTasks(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	taskListID := common.StringArgOr(args, "task_list_id", "@default")
	showCompleted := common.BoolArg(args, "show_completed", false)

	client, err := svc.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Tasks.List(taskListID).ShowCompleted(showCompleted).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	type taskSummary struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
		Due    string `json:"due,omitempty"`
	}
	items := make([]taskSummary, 0, len(resp.Items))
	for _, t := range resp.Items {
		items = append(items, taskSummary{ID: t.Id, Title: t.Title, Status: t.Status, Due: t.Due})
	}

	out, _ := json.MarshalIndent(map[string]any{
		"taskList": taskListID,
		"tasks":    items,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func runCompleteTask(ctx context.Context, svc *services.Handle, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := common.Args(request)
	taskID := common.StringArg(args, "task_id")
	if taskID == "" {
		return mcp.NewToolResultError("task_id is required"), nil
	}
	taskListID := common.StringArgOr(args, "task_list_id", "@default")

	client, err := svc.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	task, err := client.Tasks.Get(taskListID, taskID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	task.Status = "completed"
	updated, err := client.Tasks.Update(taskListID, taskID, task).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task completed: %s (id: %s)", updated.Title, updated.Id)), nil
}
