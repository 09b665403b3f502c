// Package logging provides structured logging for sensorlog.
//
// It wraps log/slog to give every component a consistent logger with
// a component attribute, text or JSON output, and a configurable
// level. The storage engine itself stays silent; logging happens at
// the ingestion and CLI layers, where failures are logged and skipped
// rather than propagated (telemetry ingestion is best-effort).
package logging

import (
	"log/slog"
	"os"
	"strings"
)

var logger = slog.Default()

// Init initializes the package logger with the specified level and
// format. If jsonFormat is true, logs are emitted as JSON; otherwise
// human-readable text.
func Init(level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger = slog.New(handler)
}

// Component returns a logger tagged with the component name.
func Component(name string) *slog.Logger {
	return logger.With("component", name)
}

// ParseLevel maps a config string to a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
