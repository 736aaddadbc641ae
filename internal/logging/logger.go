// Package logging wraps the standard logger with subsystem prefixes and a
// debug switch.
package logging

import (
	"log"
	"strings"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetLevel enables debug output for "debug"; any other level keeps info only.
func SetLevel(level string) {
	debugEnabled.Store(strings.EqualFold(strings.TrimSpace(level), "debug"))
}

// DebugEnabled reports whether Debug lines are printed.
func DebugEnabled() bool { return debugEnabled.Load() }

// Info logs an informational message (always shown)
func Info(subsystem, format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
}

// Debug logs a debug message (only shown at debug level)
func Debug(subsystem, format string, args ...any) {
	if debugEnabled.Load() {
		log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
	}
}

// Logf returns a printf-style function bound to a subsystem, for
// collaborators that take a plain logger.
func Logf(subsystem string) func(string, ...any) {
	return func(format string, args ...any) { Info(subsystem, format, args...) }
}
