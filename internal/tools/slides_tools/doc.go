// Package slides_tools exposes Google Slides operations as MCP tools.
package slides_tools
