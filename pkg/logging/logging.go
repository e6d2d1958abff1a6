// Copyright 2025 Best Day Labs.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides leveled diagnostic logging for the verifier.
//
// Diagnostics always go to stderr. Stdout is reserved for verification
// reports, which callers may parse as JSON, so nothing in this package may
// write there.
package logging

import "strings"

// LogLevel is the severity of a log message.
type LogLevel int

const (
	// LevelDebug emits per-step verification detail.
	LevelDebug LogLevel = iota
	// LevelInfo emits general progress messages.
	LevelInfo
	// LevelWarn emits potential problems that do not fail verification.
	LevelWarn
	// LevelError emits failures.
	LevelError
	// LevelSilent suppresses all diagnostic output.
	LevelSilent
)

// String returns the lowercase name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a level name, defaulting to LevelInfo for anything
// unrecognized.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "none", "off":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// LogFormat selects the diagnostic output encoding.
type LogFormat int

const (
	// FormatText outputs human-readable text.
	FormatText LogFormat = iota
	// FormatJSON outputs one JSON object per line.
	FormatJSON
)

// ParseLogFormat parses a format name, defaulting to FormatText for anything
// unrecognized.
func ParseLogFormat(s string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Logger is the leveled logging interface the verifier writes against.
// The built-in implementation is DefaultLogger; adapters for slog or other
// backends can satisfy it as well.
type Logger interface {
	// Debug logs with printf-style formatting at debug level.
	Debug(format string, args ...interface{})
	// Info logs with printf-style formatting at info level.
	Info(format string, args ...interface{})
	// Warn logs with printf-style formatting at warn level.
	Warn(format string, args ...interface{})
	// Error logs with printf-style formatting at error level.
	Error(format string, args ...interface{})

	// GetLevel returns the minimum level this logger emits.
	GetLevel() LogLevel
	// Silent reports whether debug output is suppressed.
	Silent() bool

	// WithField returns a Logger that attaches the key-value pair to every
	// entry it emits.
	WithField(key string, value interface{}) Logger
}

// Default returns an info-level text logger.
func Default() Logger {
	return NewLogger(false)
}

// EnsureLogger returns l, or a default logger when l is nil.
func EnsureLogger(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}
