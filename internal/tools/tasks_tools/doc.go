// Package tasks_tools exposes Google Tasks operations as MCP tools.
package tasks_tools
