// Package clog provides leveled operational logging for hostgate.
// This is distinct from user-facing output (see internal/term).
//
// Log levels:
//   - Debug: Verbose diagnostic information, only with --debug or log.level=debug
//   - Info: Normal operational events
//   - Warn: Unexpected conditions that don't prevent operation
//   - Error: Failures that affect functionality
//
// Output destinations:
//   - File: All levels (debug only with --debug flag)
//   - Stderr: Warn and Error only, disabled in daemon mode. provider serve
//     runs in daemon mode with stderr as its file output, so the parent
//     relays every line into its own log.
package clog

import "strings"

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for verbose diagnostic information.
	// Only logged when debug mode is enabled.
	LevelDebug Level = iota
	// LevelInfo is for normal operational events.
	LevelInfo
	// LevelWarn is for unexpected conditions that don't prevent operation.
	LevelWarn
	// LevelError is for failures that affect functionality.
	LevelError
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level string (case-insensitive).
// Returns LevelInfo if the string is not recognized.
func ParseLevel(s string) Level {
	if l, ok := LookupLevel(s); ok {
		return l
	}
	return LevelInfo
}

// LookupLevel parses a level string and reports whether it was recognized.
func LookupLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error", "err":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}
