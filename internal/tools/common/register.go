package common

import (
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/server"
)

// Register adds authenticated operations to the MCP server, each behind the
// instrumented wrapper.
func Register(s *mcpserver.MCPServer, sc *server.ServerContext, wrapped ...*auth.Wrapped) {
	for _, w := range wrapped {
		s.AddTool(w.Tool(), mcpserver.ToolHandlerFunc(Instrument(w.Name(), sc, ToolHandler(w.Handler()))))
	}
}

// RegisterWithService is Register with Google API operation metrics attached.
func RegisterWithService(s *mcpserver.MCPServer, sc *server.ServerContext, serviceName, operation string, w *auth.Wrapped) {
	s.AddTool(w.Tool(), mcpserver.ToolHandlerFunc(InstrumentWithService(w.Name(), serviceName, operation, sc, ToolHandler(w.Handler()))))
}
