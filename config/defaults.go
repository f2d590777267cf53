package config

import "time"

// Default runtime limits and guardrails for the toolgate server. Settings
// start from these values before env and flags are applied.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10

	// Tool payload limits
	DefaultMaxPayloadBytes = 64 * 1024
	DefaultPageSize        = 25
	MaxPageSize            = 200
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultShutdownTimeout       = 10 * time.Second

	// Legacy auth flow
	DefaultAuthFlowTTL           = 10 * time.Minute
	DefaultAuthFlowCleanupPeriod = time.Minute
	DefaultMaxPendingAuthFlows   = 256

	// Catalog footprint measurement runs in the background and is abandoned
	// after this long.
	DefaultFootprintTimeout = 5 * time.Second
)

const (
	DefaultHTTPAddr = ":8848"
	DefaultLogLevel = "info"

	// DefaultAuthURL is the authorization endpoint for the legacy flow.
	DefaultAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

	// DefaultLegacyAuthTool is removed when OAuth 2.1 is enabled.
	DefaultLegacyAuthTool = "start_google_auth"

	// DefaultFootprintModel sizes the visible tool catalog in tokens.
	DefaultFootprintModel = "gpt-4"
)

// Environment variables read by Load.
const (
	EnvLogLevel       = "TOOLGATE_LOG_LEVEL"
	EnvHTTPAddr       = "TOOLGATE_HTTP_ADDR"
	EnvToolTier       = "TOOLGATE_TOOL_TIER"
	EnvTools          = "TOOLGATE_TOOLS"
	EnvTiersFile      = "TOOLGATE_TIERS_FILE"
	EnvFailOpen       = "TOOLGATE_FAIL_OPEN"
	EnvDecisionsOut   = "TOOLGATE_DECISIONS_OUT"
	EnvAllowedDirs    = "TOOLGATE_ALLOWED_DIRS"
	EnvOAuth21        = "MCP_ENABLE_OAUTH21"
	EnvReadOnly       = "MCP_READ_ONLY"
	EnvOAuthClientID  = "GOOGLE_OAUTH_CLIENT_ID"
	EnvOAuthRedirect  = "GOOGLE_OAUTH_REDIRECT_URI"
	EnvMaxConcurrency = "TOOLGATE_MAX_CONCURRENT_REQUESTS"
)
