// Package chat_tools exposes Google Chat operations as MCP tools.
package chat_tools
