// Package tools declares the toolgate MCP tools. Every tool is declared
// unconditionally through the registry interceptor together with its required
// scopes; the filter pass decides afterwards which of them stay visible.
package tools

import (
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/toolgate/internal/auth"
	"github.com/vinodismyname/toolgate/internal/products"
	"github.com/vinodismyname/toolgate/internal/registry"
	"github.com/vinodismyname/toolgate/internal/runtime"
	"github.com/vinodismyname/toolgate/internal/scopes"
	"github.com/vinodismyname/toolgate/internal/telemetry"
	"github.com/vinodismyname/toolgate/pkg/mcperr"
	"github.com/vinodismyname/toolgate/pkg/validation"
)

// Tool names.
const (
	StartGoogleAuth    = "start_google_auth"
	AuthStatus         = "auth_status"
	ListProducts       = "list_products"
	GetProduct         = "get_product"
	CreateProduct      = "create_product"
	UpdateProduct      = "update_product"
	DeleteProduct      = "delete_product"
	DescribeToolPolicy = "describe_tool_policy"
)

// Deps are the services tool handlers use.
type Deps struct {
	Products *products.Store
	Flows    *auth.FlowStore
	Modes    auth.Modes
	Limits   runtime.Limits
	Catalog  *registry.Catalog
	Policy   *PolicyBoard
	Logger   zerolog.Logger
}

// Register declares every tool on reg.
func Register(reg *registry.Registry, deps Deps) {
	if deps.Policy == nil {
		deps.Policy = &PolicyBoard{}
	}
	registerAuth(reg, deps)
	registerProducts(reg, deps)
	registerPolicy(reg, deps)
}

// declare attaches the scope table entry for the tool before forwarding.
func declare(reg *registry.Registry, tool mcp.Tool, handler server.ToolHandlerFunc) {
	reg.Declare(tool, handler, scopes.For(tool.Name)...)
}

// PolicyBoard holds the latest filter pass report and catalog footprint for
// describe_tool_policy.
type PolicyBoard struct {
	mu        sync.RWMutex
	report    *registry.Report
	footprint *telemetry.Footprint
}

// Publish stores the latest report and, when non-nil, the footprint.
func (b *PolicyBoard) Publish(rep registry.Report, fp *telemetry.Footprint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report = &rep
	b.footprint = fp
}

// AttachFootprint sets the footprint for the published report. It is a no-op
// until a report has been published.
func (b *PolicyBoard) AttachFootprint(fp telemetry.Footprint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.report != nil {
		b.footprint = &fp
	}
}

// Latest returns the stored report and footprint.
func (b *PolicyBoard) Latest() (registry.Report, *telemetry.Footprint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.report == nil {
		return registry.Report{}, nil, false
	}
	return *b.report, b.footprint, true
}

// invalid validates in and returns a tool error result when it fails.
func invalid(in any) *mcp.CallToolResult {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg)
	}
	return nil
}
