package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation        Code = "VALIDATION"
	CursorInvalid     Code = "CURSOR_INVALID"
	CursorBuildFailed Code = "CURSOR_BUILD_FAILED"

	// Resource & Limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// Products
	NotFound     Code = "NOT_FOUND"
	Conflict     Code = "CONFLICT"
	ReadFailed   Code = "READ_FAILED"
	WriteFailed  Code = "WRITE_FAILED"
	EncodeFailed Code = "ENCODE_FAILED"

	// Auth & Policy
	AuthNotConfigured Code = "AUTH_NOT_CONFIGURED"
	AuthFailed        Code = "AUTH_FAILED"
	PolicyUnavailable Code = "POLICY_UNAVAILABLE"
	PermissionDenied  Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:        {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	CursorInvalid:     {Code: CursorInvalid, Message: "cursor is invalid for current context", Retryable: true, NextSteps: []string{"Restart pagination from the first page", "Avoid writes between pages"}},
	CursorBuildFailed: {Code: CursorBuildFailed, Message: "failed to encode next page cursor", Retryable: true, NextSteps: []string{"Retry with a smaller page size"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry or lower the page size"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "payload exceeds configured size", Retryable: true, NextSteps: []string{"Shorten text fields or split the request"}},

	NotFound:     {Code: NotFound, Message: "product not found", Retryable: false, NextSteps: []string{"Call list_products to find valid IDs"}},
	Conflict:     {Code: Conflict, Message: "product already exists", Retryable: false, NextSteps: []string{"Use update_product or choose a different url_slug"}},
	ReadFailed:   {Code: ReadFailed, Message: "failed to read products", Retryable: true, NextSteps: []string{"Retry the request"}},
	WriteFailed:  {Code: WriteFailed, Message: "failed to write product", Retryable: false, NextSteps: []string{"Validate fields and retry"}},
	EncodeFailed: {Code: EncodeFailed, Message: "failed to encode result", Retryable: true, NextSteps: []string{"Retry the request"}},

	AuthNotConfigured: {Code: AuthNotConfigured, Message: "legacy auth flow is not configured", Retryable: false, NextSteps: []string{"Set GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_REDIRECT_URI", "Or enable OAuth 2.1"}},
	AuthFailed:        {Code: AuthFailed, Message: "authorization could not be started", Retryable: true, NextSteps: []string{"Retry start_google_auth"}},
	PolicyUnavailable: {Code: PolicyUnavailable, Message: "tool policy has not been computed yet", Retryable: true, NextSteps: []string{"Retry after server startup completes"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "operation not permitted in current mode", Retryable: false, NextSteps: []string{"Disable read-only mode to allow writes"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	code, msg, found := strings.Cut(t, ":")
	if !found {
		return mcp.NewToolResultError(normalize(Validation, t))
	}
	return mcp.NewToolResultError(normalize(Code(strings.TrimSpace(code)), strings.TrimSpace(msg)))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}
