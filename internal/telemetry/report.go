package telemetry

import (
	"github.com/rs/zerolog"
	"github.com/vinodismyname/toolgate/internal/registry"
)

// LogReport writes a filter pass report: one summary line plus one line per
// host failure. The summary is an error when the pass could not list tools.
func LogReport(logger zerolog.Logger, rep registry.Report) {
	if rep.Err != nil {
		logger.Error().Err(rep.Err).Str("mode", rep.Mode).Msg("tool policy not applied")
		return
	}

	for _, f := range rep.Failures {
		logger.Warn().Str("tool", f.Tool).Str("stage", f.Stage).Err(f.Err).Msg("tool policy failure")
	}

	evt := logger.Info().
		Str("mode", rep.Mode).
		Bool("oauth21", rep.ModernAuth).
		Bool("fast_path", rep.FastPath).
		Int("declared", rep.Declared).
		Int("removed", len(rep.Removed)).
		Int("failures", len(rep.Failures))
	if rep.EnabledCount >= 0 {
		evt = evt.Int("enabled", rep.EnabledCount)
	} else {
		evt = evt.Str("enabled", "all")
	}
	if len(rep.Removed) > 0 {
		evt = evt.Strs("removed_tools", rep.Removed)
	}
	evt.Msg("tool policy applied")
}
