// Package search_tools exposes Google Programmable Search (Custom Search)
// as an MCP tool.
package search_tools
