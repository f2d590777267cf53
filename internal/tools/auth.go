package tools

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/vinodismyname/toolgate/internal/auth"
	"github.com/vinodismyname/toolgate/internal/registry"
	"github.com/vinodismyname/toolgate/internal/scopes"
	"github.com/vinodismyname/toolgate/pkg/mcperr"
)

// StartAuthInput defines parameters for start_google_auth.
type StartAuthInput struct {
	Scopes []string `json:"scopes,omitempty" validate:"omitempty,dive,scope" jsonschema_description:"Scopes to request; defaults to every scope the tools need"`
}

// StartAuthOutput is the authorization the user must complete.
type StartAuthOutput struct {
	AuthorizationURL string    `json:"authorization_url" jsonschema_description:"URL the user opens to grant access"`
	State            string    `json:"state" jsonschema_description:"Opaque state echoed by the callback"`
	Scopes           []string  `json:"scopes"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// AuthStatusOutput reports the configured auth mode.
type AuthStatusOutput struct {
	AuthMode     string `json:"auth_mode" jsonschema_description:"oauth2.1 or legacy"`
	ReadOnly     bool   `json:"read_only"`
	PendingFlows int    `json:"pending_flows" jsonschema_description:"Legacy authorizations awaiting callback"`
}

// defaultAuthScopes is the union of scopes required by the declared tools.
func defaultAuthScopes() []string {
	seen := map[string]struct{}{scopes.OpenID: {}, scopes.UserInfoEmail: {}}
	for _, required := range scopes.Tools {
		for _, s := range required {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func registerAuth(reg *registry.Registry, deps Deps) {
	startTool := mcp.NewTool(
		StartGoogleAuth,
		mcp.WithDescription("Start the legacy Google authorization flow and return the URL the user must visit"),
		mcp.WithArray("scopes", mcp.WithStringItems(), mcp.Description("Scopes to request (optional)")),
		mcp.WithOutputSchema[StartAuthOutput](),
		mcp.WithOpenWorldHintAnnotation(true),
	)
	declare(reg, startTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in StartAuthInput) (*mcp.CallToolResult, error) {
		if res := invalid(in); res != nil {
			return res, nil
		}
		if deps.Flows == nil {
			return mcperr.New(mcperr.AuthNotConfigured, ""), nil
		}
		requested := in.Scopes
		if len(requested) == 0 {
			requested = defaultAuthScopes()
		}
		flow, err := deps.Flows.Begin(requested)
		if errors.Is(err, auth.ErrNotConfigured) {
			return mcperr.New(mcperr.AuthNotConfigured, ""), nil
		}
		if errors.Is(err, auth.ErrTooManyFlows) {
			return mcperr.New(mcperr.BusyResource, "too many pending authorizations"), nil
		}
		if err != nil {
			deps.Logger.Error().Err(err).Msg("start_google_auth failed")
			return mcperr.Wrapf(mcperr.AuthFailed, "%v", err), nil
		}
		deps.Logger.Info().Strs("scopes", flow.Scopes).Time("expires_at", flow.ExpiresAt).Msg("legacy authorization started")
		return mcp.NewToolResultStructuredOnly(StartAuthOutput{
			AuthorizationURL: flow.URL,
			State:            flow.State,
			Scopes:           flow.Scopes,
			ExpiresAt:        flow.ExpiresAt,
		}), nil
	}))

	statusTool := mcp.NewTool(
		AuthStatus,
		mcp.WithDescription("Report the authentication mode, read-only state and pending legacy authorizations"),
		mcp.WithOutputSchema[AuthStatusOutput](),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	declare(reg, statusTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := AuthStatusOutput{AuthMode: "legacy", ReadOnly: deps.Modes.ReadOnly()}
		if deps.Modes.ModernAuthEnabled() {
			out.AuthMode = "oauth2.1"
		}
		if deps.Flows != nil {
			out.PendingFlows = deps.Flows.Pending()
		}
		return mcp.NewToolResultStructuredOnly(out), nil
	})
}
