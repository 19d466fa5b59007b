// Package server wires the MCP server to its transports.
//
// It provides the server context shared by all tool handlers, the OAuth
// 2.1-protected HTTP transport built on the mcp-oauth library, session id
// management for multi-account use, health endpoints for Kubernetes probes
// and a dedicated Prometheus metrics server.
package server
