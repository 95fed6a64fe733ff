// Package mcp exposes the charity's retrieval surface over the Model
// Context Protocol, so external agents can run the same FAQ and child
// searches the chat assistant uses.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/charitybridge/nico/internal/agent"
	"github.com/charitybridge/nico/internal/faqs"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Searcher is the retrieval surface shared with the chat orchestrator.
type Searcher interface {
	SearchFAQs(ctx context.Context, keywords []string) ([]faqs.FAQ, error)
	FindChildren(ctx context.Context, call agent.FetchChildrenCall) (agent.SearchOutcome, error)
}

var _ Searcher = (*agent.Orchestrator)(nil)

// Server wraps an MCP server exposing the search tools.
type Server struct {
	searcher Searcher
	mcp      *server.MCPServer
}

// NewServer creates an MCP server over the given retrieval surface.
func NewServer(searcher Searcher) *Server {
	s := &Server{searcher: searcher}

	s.mcp = server.NewMCPServer(
		"nico",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchFAQsTool, s.handleSearchFAQs)
	s.mcp.AddTool(findChildrenTool, s.handleFindChildren)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
