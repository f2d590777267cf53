package registry

import (
	"errors"
	"fmt"
	"maps"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MetaRequiredScopes is the tool _meta key carrying the scopes a tool needs.
const MetaRequiredScopes = "requiredScopes"

// ErrNoScopeMetadata indicates a tool object whose scope metadata cannot be read.
var ErrNoScopeMetadata = errors.New("registry: tool carries no readable scope metadata")

// ScopeCarrier is implemented by tool objects that declare their scopes directly.
type ScopeCarrier interface {
	RequiredScopes() []string
}

// WithRequiredScopes returns a copy of tool whose _meta lists the given
// scopes. Passing no scopes leaves the tool unchanged.
func WithRequiredScopes(tool mcp.Tool, scopes ...string) mcp.Tool {
	if len(scopes) == 0 {
		return tool
	}
	fields := map[string]any{}
	var meta mcp.Meta
	if tool.Meta != nil {
		meta = *tool.Meta
		maps.Copy(fields, tool.Meta.AdditionalFields)
	}
	list := make([]string, len(scopes))
	copy(list, scopes)
	fields[MetaRequiredScopes] = list
	meta.AdditionalFields = fields
	tool.Meta = &meta
	return tool
}

// RequiredScopes resolves the scopes declared on a live tool object. Objects
// implementing ScopeCarrier answer directly; *server.ServerTool and mcp.Tool are
// read from _meta; anything exposing Unwrap() is resolved through the wrapped
// operation. A tool without the metadata key has no scope requirement.
func RequiredScopes(obj any) ([]string, error) {
	for depth := 0; depth < 8; depth++ {
		switch v := obj.(type) {
		case nil:
			return nil, ErrNoScopeMetadata
		case ScopeCarrier:
			return v.RequiredScopes(), nil
		case *server.ServerTool:
			if v == nil {
				return nil, ErrNoScopeMetadata
			}
			return scopesFromMeta(v.Tool.Meta)
		case server.ServerTool:
			return scopesFromMeta(v.Tool.Meta)
		case *mcp.Tool:
			if v == nil {
				return nil, ErrNoScopeMetadata
			}
			return scopesFromMeta(v.Meta)
		case mcp.Tool:
			return scopesFromMeta(v.Meta)
		case interface{ Unwrap() any }:
			obj = v.Unwrap()
		default:
			return nil, fmt.Errorf("%w: %T", ErrNoScopeMetadata, obj)
		}
	}
	return nil, fmt.Errorf("%w: wrapper chain too deep", ErrNoScopeMetadata)
}

func scopesFromMeta(meta *mcp.Meta) ([]string, error) {
	if meta == nil || meta.AdditionalFields == nil {
		return nil, nil
	}
	raw, ok := meta.AdditionalFields[MetaRequiredScopes]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: scope entry of type %T", ErrNoScopeMetadata, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s of type %T", ErrNoScopeMetadata, MetaRequiredScopes, raw)
	}
}
