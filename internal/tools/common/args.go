package common

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Args returns the request arguments as a map, never nil.
func Args(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		args = map[string]any{}
	}
	return args
}

// StringArg returns a string argument, or "" when absent or mistyped.
func StringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// StringArgOr returns a string argument, or def when absent or empty.
func StringArgOr(args map[string]any, name, def string) string {
	if v := StringArg(args, name); v != "" {
		return v
	}
	return def
}

// IntArg returns a numeric argument as int64. JSON numbers arrive as float64.
func IntArg(args map[string]any, name string, def int64) int64 {
	switch v := args[name].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return def
	}
}

// BoolArg returns a boolean argument, or def when absent or mistyped.
func BoolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}
