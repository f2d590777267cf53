package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings is the resolved server configuration. Load fills it from the
// environment; main then applies command-line flags on top.
type Settings struct {
	LogLevel string `validate:"required,oneof=trace debug info warn error fatal panic disabled"`

	Stdio    bool
	HTTPAddr string `validate:"omitempty,hostname_port"`

	ToolTier  string   `validate:"omitempty,tier"`
	Tools     []string `validate:"omitempty,dive,toolname"`
	TiersFile string

	OAuth21  bool
	ReadOnly bool
	FailOpen bool

	OAuthClientID    string
	OAuthRedirectURI string `validate:"omitempty,url"`

	DecisionsOut string `validate:"omitempty,report_ext"`
	AllowedDirs  []string

	MaxConcurrentRequests int64 `validate:"gte=1,lte=1024"`
}

// Load returns settings parsed from environment variables, falling back to
// package defaults. A boolean variable holding an unrecognized value is an
// error rather than its default, so a typo cannot silently disable a mode.
func Load() (Settings, error) {
	var errs []error
	readBool := func(key string) bool {
		v, err := envBool(key, false)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	s := Settings{
		LogLevel:              strings.ToLower(strings.TrimSpace(envOrDefault(EnvLogLevel, DefaultLogLevel))),
		Stdio:                 true,
		HTTPAddr:              envOrDefault(EnvHTTPAddr, DefaultHTTPAddr),
		ToolTier:              strings.ToLower(strings.TrimSpace(os.Getenv(EnvToolTier))),
		Tools:                 SplitList(os.Getenv(EnvTools)),
		TiersFile:             strings.TrimSpace(os.Getenv(EnvTiersFile)),
		OAuth21:               readBool(EnvOAuth21),
		ReadOnly:              readBool(EnvReadOnly),
		FailOpen:              readBool(EnvFailOpen),
		OAuthClientID:         strings.TrimSpace(os.Getenv(EnvOAuthClientID)),
		OAuthRedirectURI:      strings.TrimSpace(os.Getenv(EnvOAuthRedirect)),
		DecisionsOut:          strings.TrimSpace(os.Getenv(EnvDecisionsOut)),
		AllowedDirs:           SplitList(os.Getenv(EnvAllowedDirs)),
		MaxConcurrentRequests: envInt(EnvMaxConcurrency, DefaultMaxConcurrentRequests),
	}
	return s, errors.Join(errs...)
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		switch strings.ToLower(value) {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		default:
			return defaultVal, fmt.Errorf("config: %s: invalid boolean %q", key, value)
		}
	}
	return parsed, nil
}

func envInt(key string, defaultVal int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}

// String renders the non-secret settings for startup logs.
func (s Settings) String() string {
	transport := "stdio"
	if !s.Stdio {
		transport = "http " + s.HTTPAddr
	}
	return fmt.Sprintf("transport=%s tier=%q tools=%d oauth21=%t read_only=%t fail_open=%t",
		transport, s.ToolTier, len(s.Tools), s.OAuth21, s.ReadOnly, s.FailOpen)
}
