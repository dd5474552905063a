package hab

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger. Format should be
// "json" for JSON output or anything else (including "") for human-readable
// text. All log output goes to os.Stderr so stdout stays clean for the
// shell scripts hab emits.
func SetupLogging(level slog.Level, format string) {
	SetupLoggingWithWriter(level, format, os.Stderr)
}

// SetupLoggingWithWriter is SetupLogging with an explicit writer, used by
// tests to capture log output in a buffer.
func SetupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel maps -v/-vv flags (and HAB_DEBUG) to a slog.Level. Default
// is Warn: a resolver that only speaks up on real problems.
func ResolveLogLevel(verboseCount int) slog.Level {
	if os.Getenv("HAB_DEBUG") == "1" {
		return slog.LevelDebug
	}
	switch {
	case verboseCount >= 2:
		return slog.LevelDebug
	case verboseCount == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// ResolveLogFormat reads HAB_LOG_FORMAT ("json" or text, default text).
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv("HAB_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}

// NewLogger returns a child logger tagged with a "component" attribute.
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
