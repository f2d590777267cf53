// Package auth reports the server's authentication and operating modes and
// tracks pending legacy authorization flows.
package auth

// Modes is the authentication and operating mode configured at startup.
type Modes struct {
	// OAuth21 selects the OAuth 2.1 flow, which replaces the legacy
	// start-auth tool.
	OAuth21 bool
	// ReadOnlyMode restricts tools to read-only-safe scopes.
	ReadOnlyMode bool
}

// ModernAuthEnabled reports whether OAuth 2.1 is active.
func (m Modes) ModernAuthEnabled() bool { return m.OAuth21 }

// ReadOnly reports whether read-only mode is active.
func (m Modes) ReadOnly() bool { return m.ReadOnlyMode }

// String renders the mode pair for logs.
func (m Modes) String() string {
	auth := "legacy"
	if m.OAuth21 {
		auth = "oauth2.1"
	}
	if m.ReadOnlyMode {
		return auth + "/read-only"
	}
	return auth + "/full"
}
