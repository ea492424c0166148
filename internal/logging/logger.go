package logging

import (
	"log"
	"os"
	"strings"
)

var (
	debugEnabled = os.Getenv("DEBUG") == "true"
)

// Info logs an informational message (always shown)
func Info(subsystem, format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
}

// Debug logs a debug message (only shown if DEBUG=true)
func Debug(subsystem, format string, args ...any) {
	if debugEnabled {
		log.Printf("[%s] "+format, append([]any{subsystem}, args...)...)
	}
}

// Warn logs a recoverable failure that was swallowed by a best-effort path
func Warn(subsystem, format string, args ...any) {
	log.Printf("[%s] warning: "+format, append([]any{subsystem}, args...)...)
}

// SetDebug toggles debug output at runtime (config may override the env default)
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

// DebugEnabled reports whether debug output is on
func DebugEnabled() bool {
	return debugEnabled
}

// Truncate truncates a string to maxLen and adds ellipsis
func Truncate(s string, maxLen int) string {
	// Replace newlines with spaces for one-line logs
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
