// Package registry gates which declared MCP tools stay visible on a server.
//
// Gating is a two-phase protocol. Every tool is declared unconditionally
// through a Registry, then a single Filter pass removes the tools that the
// current policy disqualifies. Declaring first is required: read-only gating
// reads each tool's required scopes from the live server, which only works
// once the tool exists there. Tools declared after the Filter pass has run are
// never filtered.
package registry

import (
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Declarer is the tool-declaration entry point of a host server.
// *server.MCPServer satisfies it.
type Declarer interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
}

// Registry wraps a Declarer and records every declared tool name in
// declaration order. Install it once, at server construction, and route all
// declarations through it.
type Registry struct {
	next Declarer

	mu      sync.Mutex
	tracked []string
}

var _ Declarer = (*Registry)(nil)

// Intercept wraps d so that declarations are tracked. Wrapping a Registry
// returns it unchanged.
func Intercept(d Declarer) *Registry {
	if r, ok := d.(*Registry); ok {
		return r
	}
	return &Registry{next: d}
}

// AddTool declares the tool on the wrapped server and records its name. The
// declaration is always forwarded, even for tools that a later Filter pass
// will remove. The recorded name is the name of the tool actually declared.
func (r *Registry) AddTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	r.next.AddTool(tool, handler)

	r.mu.Lock()
	r.tracked = append(r.tracked, tool.Name)
	r.mu.Unlock()
}

// Declare attaches required scopes to the tool and declares it.
func (r *Registry) Declare(tool mcp.Tool, handler server.ToolHandlerFunc, scopes ...string) {
	r.AddTool(WithRequiredScopes(tool, scopes...), handler)
}

// Tracked returns a copy of the declared names in declaration order. A name
// declared twice appears twice.
func (r *Registry) Tracked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.tracked))
	copy(out, r.tracked)
	return out
}

// Unwrap returns the wrapped Declarer.
func (r *Registry) Unwrap() Declarer {
	return r.next
}
