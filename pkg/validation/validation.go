package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vinodismyname/toolgate/pkg/pagination"
)

var (
	v      *validator.Validate
	vOnce  sync.Once
	toolRe = regexp.MustCompile(`^[A-Za-z0-9_\-\.]{1,128}$`)
	tierRe = regexp.MustCompile(`^[a-z][a-z0-9_\-]{0,31}$`)
	slugRe = regexp.MustCompile(`^[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*$`)
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New()
		// Custom: MCP tool name (letters, digits, underscore, dash, dot)
		_ = v.RegisterValidation("toolname", func(fl validator.FieldLevel) bool {
			return toolRe.MatchString(fl.Field().String())
		})
		// Custom: tier identifier as used in tier files
		_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
			return tierRe.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		// Custom: permission scope token, non-empty without whitespace
		_ = v.RegisterValidation("scope", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "" && !strings.ContainsAny(s, " \t\r\n")
		})
		// Custom: URL slug (alphanumeric words joined by single dashes)
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRe.MatchString(fl.Field().String())
		})
		// Custom: decision report output must be .xlsx or .csv
		_ = v.RegisterValidation("report_ext", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			return strings.HasSuffix(s, ".xlsx") || strings.HasSuffix(s, ".csv")
		})
		// Custom: cursor must be decodable via pagination.DecodeCursor
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			_, err := pagination.DecodeCursor(s)
			return err == nil
		})
	})
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	err := Validator().Struct(s)
	if err == nil {
		return ""
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "VALIDATION: invalid inputs"
	}
	fe := ve[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("VALIDATION: %s is required", field)
	case "toolname":
		return fmt.Sprintf("VALIDATION: %s must be a tool name (letters, digits, _ - .)", field)
	case "tier":
		return fmt.Sprintf("VALIDATION: %s must be a tier name such as core, extended or complete", field)
	case "scope":
		return fmt.Sprintf("VALIDATION: %s must be a scope token without spaces", field)
	case "slug":
		return fmt.Sprintf("VALIDATION: %s must be letters and digits joined by single dashes", field)
	case "report_ext":
		return "VALIDATION: decisions output must end in .xlsx or .csv"
	case "cursor":
		return "CURSOR_INVALID: failed to decode cursor; restart pagination"
	case "oneof":
		return fmt.Sprintf("VALIDATION: %s must be one of [%s]", field, fe.Param())
	case "min", "max", "gte", "lte", "gt", "lt":
		return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("VALIDATION: invalid %s", field)
}

// Err wraps ValidateStruct for callers that want an error value.
func Err(s any) error {
	if msg := ValidateStruct(s); msg != "" {
		return errors.New(msg)
	}
	return nil
}
