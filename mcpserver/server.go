// Package mcpserver exposes a user registry as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/samandartukhtayev/user-registry/models"
	"github.com/samandartukhtayev/user-registry/registry"
)

const (
	// ServerName is the MCP server name
	ServerName = "user-registry"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server around one registry. Tool calls may arrive
// concurrently, so every registry access goes through mu.
type Server struct {
	mcp      *server.MCPServer
	registry *registry.UserRegistry
	clock    models.Clock
	logger   *slog.Logger

	mu sync.Mutex
}

// NewServer creates an MCP server backed by reg. Users created through the
// add_user tool are stamped by clock.
func NewServer(reg *registry.UserRegistry, clock models.Clock, logger *slog.Logger) *Server {
	if clock == nil {
		clock = models.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		registry: reg,
		clock:    clock,
		logger:   logger,
	}
	s.registerTools()

	return s
}

// Serve serves MCP on stdin/stdout until ctx is done or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO serves MCP over the given streams until ctx is done or in closes
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("MCP server ready, listening on stdio", "base_address", s.registry.BaseAddress())
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) registerTools() {
	s.mcp.AddTool(loadUsersTool(), s.handleLoadUsers)
	s.mcp.AddTool(addUserTool(), s.handleAddUser)
	s.mcp.AddTool(findUserTool(), s.handleFindUser)
	s.mcp.AddTool(listUsersTool(), s.handleListUsers)
	s.mcp.AddTool(validateEmailTool(), s.handleValidateEmail)
	s.mcp.AddTool(formatDateTool(), s.handleFormatDate)
}
