package scopes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalog_Defaults(t *testing.T) {
	c := NewCatalog()

	require.True(t, c.IsReadOnlySafe(ProductsReadOnly))
	require.False(t, c.IsReadOnlySafe(Products))
	require.Equal(t, []string{OpenID, ProductsReadOnly, UserInfoEmail, UserInfoProfile}, c.ReadOnlySafeScopes())
}

func TestCatalog_FromEnvAddsScopes(t *testing.T) {
	t.Setenv(EnvReadOnlyScopes, " reports.readonly, ,calendar.readonly")

	c := NewCatalogFromEnv()

	require.True(t, c.IsReadOnlySafe("reports.readonly"))
	require.True(t, c.IsReadOnlySafe("calendar.readonly"))
	require.False(t, c.IsReadOnlySafe(""))
}

func TestFor_ReturnsCopy(t *testing.T) {
	got := For("create_product")
	require.Equal(t, []string{Products}, got)

	got[0] = "mutated"
	require.Equal(t, []string{Products}, For("create_product"))
	require.Nil(t, For("start_google_auth"))
}

func TestTools_WriteScopesAreNotReadOnlySafe(t *testing.T) {
	c := NewCatalog()
	for tool, required := range Tools {
		for _, s := range required {
			if s == Products {
				require.False(t, c.IsReadOnlySafe(s), tool)
			}
		}
	}
}
