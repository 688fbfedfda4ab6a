package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts (-v, -vv, ...).
//
// These control WHAT categories of output are shown, see output.go.
const (
	VerbosityUser  = 0 // No flags: module summaries and errors
	VerbosityInfo  = 1 // -v: + per-module progress, config source
	VerbosityDebug = 2 // -vv: + per-type outcomes, engine commands
	VerbosityTrace = 3 // -vvv: + engine stderr, classifier rule hits
)

// VerbosityToLevel maps verbosity flag counts to zap log levels.
//
//	0 (none) -> InfoLevel  (module reports are info lines and always wanted)
//	1 (-v)   -> InfoLevel
//	2+       -> DebugLevel
func VerbosityToLevel(verbosity int) zapcore.Level {
	if verbosity >= VerbosityDebug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// LevelName returns a human-readable name for a verbosity level
func LevelName(verbosity int) string {
	switch {
	case verbosity <= VerbosityUser:
		return "User"
	case verbosity == VerbosityInfo:
		return "Info (-v)"
	case verbosity == VerbosityDebug:
		return "Debug (-vv)"
	default:
		return "Trace (-vvv)"
	}
}
