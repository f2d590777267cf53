package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
)

type carrier []string

func (c carrier) RequiredScopes() []string { return c }

type wrapped struct{ fn any }

func (w wrapped) Unwrap() any { return w.fn }

func TestWithRequiredScopes_PreservesExistingMeta(t *testing.T) {
	tool := mcp.NewTool("x")
	tool.Meta = &mcp.Meta{AdditionalFields: map[string]any{"owner": "products"}}

	out := WithRequiredScopes(tool, "products")

	require.Equal(t, "products", out.Meta.AdditionalFields["owner"])
	require.Equal(t, []string{"products"}, out.Meta.AdditionalFields[MetaRequiredScopes])
	_, leaked := tool.Meta.AdditionalFields[MetaRequiredScopes]
	require.False(t, leaked, "input tool meta must not be mutated")
}

func TestWithRequiredScopes_NoScopesIsNoop(t *testing.T) {
	tool := mcp.NewTool("x")
	require.Nil(t, WithRequiredScopes(tool).Meta)
}

func TestRequiredScopes_Resolution(t *testing.T) {
	declared := WithRequiredScopes(mcp.NewTool("x"), "read:a", "write:b")
	st := &server.ServerTool{Tool: declared, Handler: noopHandler}

	cases := []struct {
		name string
		obj  any
		want []string
	}{
		{"server tool", st, []string{"read:a", "write:b"}},
		{"mcp tool", declared, []string{"read:a", "write:b"}},
		{"carrier", carrier{"read:a"}, []string{"read:a"}},
		{"wrapped carrier", wrapped{fn: carrier{"write:b"}}, []string{"write:b"}},
		{"wrapped server tool", wrapped{fn: st}, []string{"read:a", "write:b"}},
		{"no meta", mcp.NewTool("plain"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RequiredScopes(tc.obj)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRequiredScopes_DecodedJSONMeta(t *testing.T) {
	var meta mcp.Meta
	require.NoError(t, json.Unmarshal([]byte(`{"requiredScopes":["read:a"]}`), &meta))

	got, err := RequiredScopes(mcp.Tool{Name: "x", Meta: &meta})
	require.NoError(t, err)
	require.Equal(t, []string{"read:a"}, got)
}

func TestRequiredScopes_Errors(t *testing.T) {
	bad := mcp.NewTool("bad")
	bad.Meta = &mcp.Meta{AdditionalFields: map[string]any{MetaRequiredScopes: 42}}

	for _, obj := range []any{nil, "not a tool", bad, wrapped{fn: nil}} {
		_, err := RequiredScopes(obj)
		require.ErrorIs(t, err, ErrNoScopeMetadata)
	}
}

func TestMCPHost_ListInspectRemove(t *testing.T) {
	ctx := context.Background()
	srv := server.NewMCPServer("test", "0.0.0")
	reg := Intercept(srv)
	reg.Declare(mcp.NewTool("b"), noopHandler, "write:b")
	reg.Declare(mcp.NewTool("a"), noopHandler)
	host := NewMCPHost(srv)

	names, err := host.ToolNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)

	obj, err := host.Tool(ctx, "b")
	require.NoError(t, err)
	scopes, err := RequiredScopes(obj)
	require.NoError(t, err)
	require.Equal(t, []string{"write:b"}, scopes)

	_, err = host.Tool(ctx, "missing")
	require.ErrorIs(t, err, ErrToolNotFound)

	require.NoError(t, host.RemoveTool(ctx, "b"))
	require.ErrorIs(t, host.RemoveTool(ctx, "b"), ErrToolNotFound)

	names, err = host.ToolNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, names)
}

func TestMCPHost_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	host := NewMCPHost(server.NewMCPServer("test", "0.0.0"))
	_, err := host.ToolNames(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
