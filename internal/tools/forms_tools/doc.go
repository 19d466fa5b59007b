// Package forms_tools exposes Google Forms operations as MCP tools.
package forms_tools
