// Package gmail_tools exposes Gmail operations as MCP tools: message search,
// content retrieval and sending. All handlers receive an authenticated Gmail
// handle through the authentication wrapper.
package gmail_tools
