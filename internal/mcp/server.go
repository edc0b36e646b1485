// ABOUTME: MCP server setup for the pulse inference engine.
// ABOUTME: Wraps the MCP server with engine and storage access.
package mcp

import (
	"context"

	"github.com/harperreed/pulse/internal/engine"
	"github.com/harperreed/pulse/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with engine access. Tools operate for a
// default user unless the call names another.
type Server struct {
	mcpServer   *mcp.Server
	engine      *engine.Engine
	repo        storage.Repository
	defaultUser string
}

// NewServer creates a new MCP server over the engine.
func NewServer(e *engine.Engine, repo storage.Repository, defaultUser string) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pulse",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer:   mcpServer,
		engine:      e,
		repo:        repo,
		defaultUser: defaultUser,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// userOr returns the explicit user or falls back to the default.
func (s *Server) userOr(user string) string {
	if user != "" {
		return user
	}
	return s.defaultUser
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
