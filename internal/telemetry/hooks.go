package telemetry

import (
	"context"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Hooks records MCP server lifecycle events to a zerolog logger and keeps
// simple counters for health reporting.
type Hooks struct {
	logger    zerolog.Logger
	sessions  atomic.Int64
	toolCalls atomic.Int64
	toolErrs  atomic.Int64
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// Counters is a point-in-time copy of the hook counters.
type Counters struct {
	ActiveSessions int64 `json:"active_sessions"`
	ToolCalls      int64 `json:"tool_calls"`
	ToolErrors     int64 `json:"tool_errors"`
}

// Counters returns the current counter values.
func (h *Hooks) Counters() Counters {
	return Counters{
		ActiveSessions: h.sessions.Load(),
		ToolCalls:      h.toolCalls.Load(),
		ToolErrors:     h.toolErrs.Load(),
	}
}

// Server builds the mcp-go hook set backed by h.
func (h *Hooks) Server() *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		h.sessions.Add(1)
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session registered")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		h.sessions.Add(-1)
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session unregistered")
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		// Keep it light: tool count only
		h.logger.Debug().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
		h.toolCalls.Add(1)
		evt := h.logger.Info()
		if res != nil && res.IsError {
			h.toolErrs.Add(1)
			evt = h.logger.Warn().Bool("tool_error", true)
		}
		evt.Str("tool", req.Params.Name).Msg("tool call served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		h.logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
