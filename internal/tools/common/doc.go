// Package common holds the shared plumbing of the tool packages: argument
// extraction helpers, the instrumented handler wrapper, and registration of
// authenticated operations with the MCP server.
package common
