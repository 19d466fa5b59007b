// Package calendar_tools exposes Google Calendar operations as MCP tools.
package calendar_tools
