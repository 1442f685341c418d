package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/contentguard/internal/settings"
)

// Server exposes the content checks as MCP tools over stdio.
type Server struct {
	mcpServer *mcpsdk.Server
	store     *settings.Store
	logger    *slog.Logger
}

// New creates an MCP server backed by store.
func New(store *settings.Store, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "contentguard",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run serves on stdio. Blocks until ctx is cancelled or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	defer s.store.Wait()
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "contentguard_check_url",
		Description: "Check whether a URL is blocked by the active content protection settings. Set log to record a block in the history.",
	}, s.handleCheckURL)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "contentguard_check_text",
		Description: "Scan text for blocked keywords. Set log to record a block in the history.",
	}, s.handleCheckText)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "contentguard_status",
		Description: "Report the active protection level, vital blocking and whether a PIN is set.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "contentguard_history",
		Description: "List blocked attempts, newest first, optionally limited to today or the past week.",
	}, s.handleHistory)
}
