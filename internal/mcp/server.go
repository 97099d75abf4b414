package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"arafiles/internal/domain"
	"arafiles/internal/service"
)

// Server is the MCP server for arafiles.
// It exposes tools, resources, and prompts so AI agents can build question
// folders and export them.
type Server struct {
	mcp *server.MCPServer
	log *zap.Logger

	docs    *service.DocumentService
	exports *service.ExportService
	backups *service.BackupService

	// Default directory for export files when a tool call gives no path.
	outDir string
}

// Deps holds all dependencies passed in by the caller.
type Deps struct {
	Docs    *service.DocumentService
	Exports *service.ExportService
	Backups *service.BackupService
	OutDir  string
	Log     *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:     log.Named("mcp"),
		docs:    deps.Docs,
		exports: deps.Exports,
		backups: deps.Backups,
		outDir:  deps.OutDir,
	}

	s.mcp = server.NewMCPServer(
		"arafiles-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerFolderTools()
	s.registerQuestionTools()
	s.registerExportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying server for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// changeResult reports a mutation, or that nothing changed.
func changeResult(change domain.Change) (*mcp.CallToolResult, error) {
	if !change.Changed() {
		return textResult("No change"), nil
	}
	return jsonResult(change)
}

// folderArg reads the required zero-based "folder" index.
func folderArg(req mcp.CallToolRequest) (int, error) {
	fi, err := req.RequireInt("folder")
	if err != nil {
		return 0, fmt.Errorf("folder is required: %w", err)
	}
	return fi, nil
}

// questionArgs reads "folder" and "question".
func questionArgs(req mcp.CallToolRequest) (int, int, error) {
	fi, err := folderArg(req)
	if err != nil {
		return 0, 0, err
	}
	qi, err := req.RequireInt("question")
	if err != nil {
		return 0, 0, fmt.Errorf("question is required: %w", err)
	}
	return fi, qi, nil
}
