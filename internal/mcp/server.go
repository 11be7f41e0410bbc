package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/coderag/internal/rag"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes retrieval over the index.
type Server struct {
	answerer *rag.Answerer
	store    vectordb.VectorSink
	topK     int
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server. topK is the default number of
// context blocks when a tool call does not specify one.
func NewServer(answerer *rag.Answerer, store vectordb.VectorSink, topK int) *Server {
	if topK <= 0 {
		topK = 6
	}
	s := &Server{
		answerer: answerer,
		store:    store,
		topK:     topK,
	}

	s.mcp = server.NewMCPServer(
		"coderag",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askCodebaseTool, s.handleAskCodebase)
	s.mcp.AddTool(searchCodebaseTool, s.handleSearchCodebase)
	s.mcp.AddTool(indexStatusTool, s.handleIndexStatus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
