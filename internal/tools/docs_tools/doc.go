// Package docs_tools exposes Google Docs operations as MCP tools, including
// a combined Drive+Docs operation that needs two authenticated services.
package docs_tools
