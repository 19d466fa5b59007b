// Package script_tools exposes Google Apps Script operations as MCP tools.
package script_tools
