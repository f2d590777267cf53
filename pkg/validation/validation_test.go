package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/toolgate/pkg/pagination"
)

type toolArgs struct {
	Name   string   `validate:"required,toolname"`
	Tier   string   `validate:"omitempty,tier"`
	Scopes []string `validate:"omitempty,dive,scope"`
	Out    string   `validate:"omitempty,report_ext"`
	Cursor string   `validate:"omitempty,cursor"`
	Limit  int      `validate:"omitempty,gte=1,lte=200"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tok, err := pagination.EncodeCursor(pagination.Cursor{C: "products", Ps: 10})
	require.NoError(t, err)

	msg := ValidateStruct(toolArgs{
		Name:   "list_products",
		Tier:   "core",
		Scopes: []string{"products.readonly"},
		Out:    "decisions.XLSX",
		Cursor: tok,
		Limit:  25,
	})
	require.Empty(t, msg)
}

func TestValidateStruct_Messages(t *testing.T) {
	cases := []struct {
		name string
		in   toolArgs
		want string
	}{
		{"missing name", toolArgs{}, "VALIDATION: name is required"},
		{"bad name", toolArgs{Name: "has space"}, "VALIDATION: name must be a tool name"},
		{"bad tier", toolArgs{Name: "x", Tier: "Core!"}, "VALIDATION: tier must be a tier name"},
		{"bad scope", toolArgs{Name: "x", Scopes: []string{"a b"}}, "VALIDATION: scopes[0] must be a scope token"},
		{"bad out", toolArgs{Name: "x", Out: "report.json"}, "VALIDATION: decisions output"},
		{"bad cursor", toolArgs{Name: "x", Cursor: "!!!"}, "CURSOR_INVALID"},
		{"bad limit", toolArgs{Name: "x", Limit: 500}, "VALIDATION: limit must satisfy lte=200"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := ValidateStruct(tc.in)
			require.True(t, strings.HasPrefix(msg, tc.want), "got %q", msg)
			require.Error(t, Err(tc.in))
		})
	}
}
