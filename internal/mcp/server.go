// Package mcp exposes para's Session Manager as an MCP server: one tool per
// operation, plus two read-only resources, each handler a thin adapter onto
// session.Manager. Grounded on fyrsmithlabs-contextd's internal/mcp/server.go
// (github.com/modelcontextprotocol/go-sdk/mcp used directly, stdio
// transport, mcp.AddTool registration). No business logic lives here.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/para-dev/para/internal/config"
	"github.com/para-dev/para/internal/session"
)

// Server wraps an MCP server bound to one repository's Session Manager.
type Server struct {
	mcp *mcp.Server
	mgr *session.Manager
	cfg *config.Config
}

// NewServer builds an MCP server exposing mgr's operations, using cfg for
// the read-only "config" resource.
func NewServer(mgr *session.Manager, cfg *config.Config, version string) *Server {
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{Name: "para", Version: version}, nil),
		mgr: mgr,
		cfg: cfg,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves the MCP protocol over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server run: %w", err)
	}
	return nil
}
