package common

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func requestWithArgs(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestArgsNeverNil(t *testing.T) {
	assert.NotNil(t, Args(mcp.CallToolRequest{}))
	assert.NotNil(t, Args(requestWithArgs(nil)))
}

func TestStringArg(t *testing.T) {
	args := map[string]any{"query": "is:unread", "count": 3.0}

	assert.Equal(t, "is:unread", StringArg(args, "query"))
	assert.Equal(t, "", StringArg(args, "missing"))
	assert.Equal(t, "", StringArg(args, "count"))
}

func TestStringArgOr(t *testing.T) {
	args := map[string]any{"calendar_id": "work"}

	assert.Equal(t, "work", StringArgOr(args, "calendar_id", "primary"))
	assert.Equal(t, "primary", StringArgOr(args, "missing", "primary"))
	assert.Equal(t, "primary", StringArgOr(map[string]any{"calendar_id": ""}, "calendar_id", "primary"))
}

func TestIntArg(t *testing.T) {
	args := map[string]any{
		"json_number": 7.0,
		"int64":       int64(8),
		"int":         9,
		"string":      "10",
	}

	assert.Equal(t, int64(7), IntArg(args, "json_number", 1))
	assert.Equal(t, int64(8), IntArg(args, "int64", 1))
	assert.Equal(t, int64(9), IntArg(args, "int", 1))
	assert.Equal(t, int64(1), IntArg(args, "string", 1))
	assert.Equal(t, int64(1), IntArg(args, "missing", 1))
}

func TestBoolArg(t *testing.T) {
	args := map[string]any{"flag": true, "string": "true"}

	assert.True(t, BoolArg(args, "flag", false))
	assert.False(t, BoolArg(args, "string", false))
	assert.True(t, BoolArg(args, "missing", true))
}
