package internal

import (
	"log/slog"
	"strconv"
	"sync/atomic"
)

var (
	quietMode   atomic.Bool
	debugMode   atomic.Bool
	verboseMode atomic.Bool
)

// Seeds the mode flags from the linker defaults. Unparseable values leave the
// mode disabled.
func init() {
	for _, m := range []struct {
		raw  string
		mode *atomic.Bool
	}{
		{rawQuiet, &quietMode},
		{rawDebug, &debugMode},
		{rawVerbose, &verboseMode},
	} {
		if v, err := strconv.ParseBool(m.raw); err == nil {
			m.mode.Store(v)
		}
	}
}

// Enables or disables quiet mode.
func SetQuiet(enabled bool) { quietMode.Store(enabled) }

// Returns true if quiet mode is enabled.
func IsQuiet() bool { return quietMode.Load() }

// Enables or disables debug mode.
func SetDebug(enabled bool) { debugMode.Store(enabled) }

// Returns true if debug mode is enabled.
func IsDebug() bool { return debugMode.Load() }

// Enables or disables verbose logging.
func SetVerbose(enabled bool) { verboseMode.Store(enabled) }

// Returns true if verbose logging is enabled.
func IsVerbose() bool { return verboseMode.Load() }

// Returns the log level implied by the current modes. Debug wins over quiet.
func LogLevel() slog.Level {
	switch {
	case IsDebug():
		return slog.LevelDebug
	case IsQuiet():
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
