package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// DefaultLegacyAuthTool names the tool that starts the legacy (non OAuth 2.1)
// authorization flow.
const DefaultLegacyAuthTool = "start_google_auth"

// Mode labels reported by the filter pass.
const (
	ModeFull     = "Full"
	ModeReadOnly = "Read-Only"
)

// ModeProvider reports the authentication and operating modes.
type ModeProvider interface {
	ModernAuthEnabled() bool
	ReadOnly() bool
}

// ScopeSource enumerates the scopes that are safe in read-only mode.
type ScopeSource interface {
	ReadOnlySafeScopes() []string
}

// Reason explains why a tool was disqualified.
type Reason string

const (
	ReasonTier            Reason = "tier"
	ReasonAuthMode        Reason = "auth_mode"
	ReasonReadOnly        Reason = "read_only"
	ReasonScopeUnresolved Reason = "scope_unresolved"
)

// Policy is the state the filter pass acts on. It is rebuilt on every pass.
type Policy struct {
	Enabled       Enablement
	ModernAuth    bool
	ReadOnly      bool
	AllowedScopes map[string]struct{}
}

// Mode returns the operating mode label.
func (p Policy) Mode() string {
	if p.ReadOnly {
		return ModeReadOnly
	}
	return ModeFull
}

// Decision records the outcome for a single declared tool.
type Decision struct {
	Tool    string
	Scopes  []string
	Reasons []Reason
	Removed bool
}

// Disqualified reports whether any rule matched the tool.
func (d Decision) Disqualified() bool {
	return len(d.Reasons) > 0
}

// Failure is a per-tool host error that did not stop the pass.
type Failure struct {
	Tool  string
	Stage string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Stage, f.Tool, f.Err)
}

// Failure stages.
const (
	StageInspect = "inspect"
	StageRemove  = "remove"
)

// Report summarizes a filter pass for operators.
type Report struct {
	Mode         string
	EnabledCount int
	ModernAuth   bool
	FastPath     bool
	Declared     int
	Removed      []string
	Decisions    []Decision
	Failures     []Failure
	Err          error
}

// Filter removes tools the current policy disqualifies from a live host.
type Filter struct {
	catalog        *Catalog
	modes          ModeProvider
	scopes         ScopeSource
	logger         zerolog.Logger
	legacyAuthTool string
	failOpen       bool
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger used for per-tool diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Filter) { f.logger = l }
}

// WithLegacyAuthTool overrides the name of the legacy auth initiation tool.
func WithLegacyAuthTool(name string) Option {
	return func(f *Filter) {
		if name != "" {
			f.legacyAuthTool = name
		}
	}
}

// WithFailOpen keeps tools whose scopes cannot be resolved in read-only mode.
// By default such tools are removed.
func WithFailOpen(failOpen bool) Option {
	return func(f *Filter) { f.failOpen = failOpen }
}

// NewFilter constructs a Filter bound to the policy inputs.
func NewFilter(catalog *Catalog, modes ModeProvider, scopes ScopeSource, opts ...Option) *Filter {
	if catalog == nil {
		catalog = NewCatalog(Unrestricted())
	}
	f := &Filter{
		catalog:        catalog,
		modes:          modes,
		scopes:         scopes,
		logger:         zerolog.Nop(),
		legacyAuthTool: DefaultLegacyAuthTool,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot reads the current policy. Allowed scopes are only fetched when
// read-only mode is active.
func (f *Filter) Snapshot() Policy {
	p := Policy{Enabled: f.catalog.Enabled()}
	if f.modes != nil {
		p.ModernAuth = f.modes.ModernAuthEnabled()
		p.ReadOnly = f.modes.ReadOnly()
	}
	if p.ReadOnly {
		p.AllowedScopes = map[string]struct{}{}
		if f.scopes != nil {
			for _, s := range f.scopes.ReadOnlySafeScopes() {
				p.AllowedScopes[s] = struct{}{}
			}
		}
	}
	return p
}

// Apply runs the filter pass against host. It must run once, after every tool
// has been declared and before the server accepts requests. Per-tool
// introspection and removal errors are collected in the report and never stop
// the sweep. The pass summary is left to the caller; see telemetry.LogReport.
func (f *Filter) Apply(ctx context.Context, host Host) Report {
	p := f.Snapshot()
	rep := Report{
		Mode:         p.Mode(),
		EnabledCount: p.Enabled.Len(),
		ModernAuth:   p.ModernAuth,
	}

	if !p.Enabled.IsRestricted() && !p.ModernAuth && !p.ReadOnly {
		rep.FastPath = true
		return rep
	}

	names, err := host.ToolNames(ctx)
	if err != nil {
		rep.Err = fmt.Errorf("registry: list tools: %w", err)
		f.logger.Error().Err(err).Msg("tool filtering skipped: cannot list tools")
		return rep
	}
	rep.Declared = len(names)

	decisions := make(map[string]*Decision, len(names))
	for _, name := range names {
		decisions[name] = &Decision{Tool: name}
	}

	if p.Enabled.IsRestricted() {
		for _, name := range names {
			if !p.Enabled.Allows(name) {
				decisions[name].Reasons = append(decisions[name].Reasons, ReasonTier)
			}
		}
	}

	if p.ModernAuth {
		if d, ok := decisions[f.legacyAuthTool]; ok {
			d.Reasons = append(d.Reasons, ReasonAuthMode)
			f.logger.Info().Str("tool", f.legacyAuthTool).Msg("OAuth 2.1 enabled: disabling legacy auth tool")
		}
	}

	if p.ReadOnly {
		for _, name := range names {
			d := decisions[name]
			if d.Disqualified() {
				continue
			}
			f.checkScopes(ctx, host, p, d, &rep)
		}
	}

	for _, name := range names {
		d := decisions[name]
		if !d.Disqualified() {
			continue
		}
		if err := host.RemoveTool(ctx, name); err != nil {
			rep.Failures = append(rep.Failures, Failure{Tool: name, Stage: StageRemove, Err: err})
			f.logger.Warn().Str("tool", name).Err(err).Msg("tool removal failed")
			continue
		}
		d.Removed = true
		rep.Removed = append(rep.Removed, name)
	}

	rep.Decisions = make([]Decision, 0, len(names))
	for _, name := range names {
		rep.Decisions = append(rep.Decisions, *decisions[name])
	}
	sort.Slice(rep.Decisions, func(i, j int) bool {
		return rep.Decisions[i].Tool < rep.Decisions[j].Tool
	})
	sort.Strings(rep.Removed)
	return rep
}

func (f *Filter) checkScopes(ctx context.Context, host Host, p Policy, d *Decision, rep *Report) {
	obj, err := host.Tool(ctx, d.Tool)
	var scopes []string
	if err == nil {
		scopes, err = RequiredScopes(obj)
	}
	if err != nil {
		rep.Failures = append(rep.Failures, Failure{Tool: d.Tool, Stage: StageInspect, Err: err})
		if f.failOpen {
			f.logger.Warn().Str("tool", d.Tool).Err(err).Msg("read-only mode: scope metadata unavailable, keeping tool")
			return
		}
		f.logger.Warn().Str("tool", d.Tool).Err(err).Msg("read-only mode: scope metadata unavailable, disabling tool")
		d.Reasons = append(d.Reasons, ReasonScopeUnresolved)
		return
	}

	d.Scopes = scopes
	for _, s := range scopes {
		if _, ok := p.AllowedScopes[s]; !ok {
			f.logger.Info().Str("tool", d.Tool).Strs("scopes", scopes).Msg("read-only mode: disabling tool that requires write scopes")
			d.Reasons = append(d.Reasons, ReasonReadOnly)
			return
		}
	}
}
