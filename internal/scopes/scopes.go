// Package scopes enumerates the permission scopes used by toolgate tools and
// which of them are safe to grant in read-only mode.
package scopes

import (
	"os"
	"sort"
	"strings"
)

// Scope tokens required by the built-in tools.
const (
	OpenID           = "openid"
	UserInfoEmail    = "userinfo.email"
	UserInfoProfile  = "userinfo.profile"
	ProductsReadOnly = "products.readonly"
	Products         = "products"
)

// EnvReadOnlyScopes lists extra read-only-safe scopes, comma separated.
const EnvReadOnlyScopes = "TOOLGATE_READONLY_SCOPES"

// readOnlySafe are scopes that never grant write access.
var readOnlySafe = []string{
	OpenID,
	UserInfoEmail,
	UserInfoProfile,
	ProductsReadOnly,
}

// Tools maps tool names to the scopes their handlers need.
var Tools = map[string][]string{
	"auth_status":    {OpenID},
	"list_products":  {ProductsReadOnly},
	"get_product":    {ProductsReadOnly},
	"create_product": {Products},
	"update_product": {Products},
	"delete_product": {Products},
}

// Catalog answers read-only scope queries.
type Catalog struct {
	safe map[string]struct{}
}

// NewCatalog returns a Catalog with the built-in safe scopes plus extra.
// Blank entries are ignored.
func NewCatalog(extra ...string) *Catalog {
	safe := make(map[string]struct{}, len(readOnlySafe)+len(extra))
	for _, s := range readOnlySafe {
		safe[s] = struct{}{}
	}
	for _, s := range extra {
		if s = strings.TrimSpace(s); s != "" {
			safe[s] = struct{}{}
		}
	}
	return &Catalog{safe: safe}
}

// NewCatalogFromEnv constructs a Catalog extended by TOOLGATE_READONLY_SCOPES.
func NewCatalogFromEnv() *Catalog {
	var extra []string
	if v := os.Getenv(EnvReadOnlyScopes); v != "" {
		extra = strings.Split(v, ",")
	}
	return NewCatalog(extra...)
}

// ReadOnlySafeScopes returns the sorted read-only-safe scopes.
func (c *Catalog) ReadOnlySafeScopes() []string {
	out := make([]string, 0, len(c.safe))
	for s := range c.safe {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// IsReadOnlySafe reports whether scope is safe in read-only mode.
func (c *Catalog) IsReadOnlySafe(scope string) bool {
	_, ok := c.safe[scope]
	return ok
}

// For returns the scopes declared for a built-in tool, or nil.
func For(tool string) []string {
	s := Tools[tool]
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
