package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/server"
)

// ErrToolNotFound indicates the host has no tool with the requested name.
var ErrToolNotFound = errors.New("registry: tool not found")

// Host is the authoritative tool catalog of a running server.
type Host interface {
	// ToolNames lists the currently declared tool names.
	ToolNames(ctx context.Context) ([]string, error)
	// Tool returns the live tool object for introspection.
	Tool(ctx context.Context, name string) (any, error)
	// RemoveTool deletes a tool from the live catalog.
	RemoveTool(ctx context.Context, name string) error
}

// MCPHost adapts an mcp-go server to Host.
type MCPHost struct {
	srv *server.MCPServer
}

var _ Host = (*MCPHost)(nil)

// NewMCPHost wraps srv.
func NewMCPHost(srv *server.MCPServer) *MCPHost {
	return &MCPHost{srv: srv}
}

// ToolNames returns the sorted names of all tools on the server.
func (h *MCPHost) ToolNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tools := h.srv.ListTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Tool returns the *server.ServerTool registered under name.
func (h *MCPHost) Tool(ctx context.Context, name string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := h.srv.GetTool(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// RemoveTool deletes name from the server. Removing an absent tool returns
// ErrToolNotFound and leaves the server untouched.
func (h *MCPHost) RemoveTool(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.srv.GetTool(name) == nil {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	h.srv.DeleteTools(name)
	return nil
}
