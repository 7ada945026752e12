package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/doccontext-mcp/internal/app"
)

const (
	// ServerName is the MCP server name
	ServerName = "doccontext-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

const instructions = `doccontext indexes Markdown knowledge bases (ADRs, RFCs, guides, rules, project notes).
Call index_documents on a directory first, then search_documents to retrieve chunks.
chunk_document previews how a single document is split without storing it.`

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	logger *slog.Logger
}

// NewServer creates a new MCP server instance. The caller keeps ownership of a.
func NewServer(a *app.App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
	)

	s := &Server{
		mcp:    mcpServer,
		app:    a,
		logger: logger,
	}
	s.registerTools()

	return s
}

// Serve runs the MCP server on stdio until ctx is canceled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.Info("MCP server ready, listening on stdio",
		"version", ServerVersion,
		"embedding_provider", s.app.EmbeddingProvider())

	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexDocumentsTool(), s.handleIndexDocuments)
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(chunkDocumentTool(), s.handleChunkDocument)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
