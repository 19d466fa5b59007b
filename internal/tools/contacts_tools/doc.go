// Package contacts_tools exposes Google Contacts (People API) operations as
// MCP tools.
package contacts_tools
