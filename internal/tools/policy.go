package tools

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/vinodismyname/toolgate/internal/registry"
	"github.com/vinodismyname/toolgate/internal/telemetry"
	"github.com/vinodismyname/toolgate/pkg/mcperr"
)

// PolicyDecision is one tool's outcome in the last filter pass.
type PolicyDecision struct {
	Tool    string   `json:"tool"`
	Enabled bool     `json:"enabled" jsonschema_description:"Whether the administrative allow-list names this tool"`
	Removed bool     `json:"removed"`
	Reasons []string `json:"reasons,omitempty"`
	Scopes  []string `json:"scopes,omitempty"`
}

// PolicyFailure is a host error recorded during the last filter pass.
type PolicyFailure struct {
	Tool  string `json:"tool"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// PolicyOutput describes the capability policy in effect.
type PolicyOutput struct {
	Mode      string               `json:"mode" jsonschema_description:"Full or Read-Only"`
	OAuth21   bool                 `json:"oauth21"`
	Enabled   string               `json:"enabled" jsonschema_description:"all, or the number of administratively enabled tools"`
	FastPath  bool                 `json:"fast_path"`
	Declared  int                  `json:"declared"`
	Removed   []string             `json:"removed"`
	Decisions []PolicyDecision     `json:"decisions"`
	Failures  []PolicyFailure      `json:"failures,omitempty"`
	Footprint *telemetry.Footprint `json:"footprint,omitempty"`
}

// NewPolicyOutput converts a filter report into its client view. A nil catalog
// is treated as unrestricted.
func NewPolicyOutput(rep registry.Report, fp *telemetry.Footprint, catalog *registry.Catalog) PolicyOutput {
	out := PolicyOutput{
		Mode:      rep.Mode,
		OAuth21:   rep.ModernAuth,
		Enabled:   "all",
		FastPath:  rep.FastPath,
		Declared:  rep.Declared,
		Removed:   append([]string{}, rep.Removed...),
		Decisions: make([]PolicyDecision, 0, len(rep.Decisions)),
		Footprint: fp,
	}
	if rep.EnabledCount >= 0 {
		out.Enabled = strconv.Itoa(rep.EnabledCount)
	}
	for _, d := range rep.Decisions {
		pd := PolicyDecision{Tool: d.Tool, Enabled: true, Removed: d.Removed, Scopes: d.Scopes}
		if catalog != nil {
			pd.Enabled = catalog.IsEnabled(d.Tool)
		}
		for _, r := range d.Reasons {
			pd.Reasons = append(pd.Reasons, string(r))
		}
		out.Decisions = append(out.Decisions, pd)
	}
	for _, f := range rep.Failures {
		out.Failures = append(out.Failures, PolicyFailure{Tool: f.Tool, Stage: f.Stage, Error: f.Err.Error()})
	}
	return out
}

func registerPolicy(reg *registry.Registry, deps Deps) {
	board := deps.Policy

	tool := mcp.NewTool(
		DescribeToolPolicy,
		mcp.WithDescription("Explain which tools the server hides and why (tier, auth mode, read-only scopes)"),
		mcp.WithOutputSchema[PolicyOutput](),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	declare(reg, tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rep, fp, ok := board.Latest()
		if !ok {
			return mcperr.New(mcperr.PolicyUnavailable, ""), nil
		}
		return mcp.NewToolResultStructuredOnly(NewPolicyOutput(rep, fp, deps.Catalog)), nil
	})
}
