// Package logging builds the process logger for CLI entry points.
// Engine diagnostics do NOT go through here; they are part of the run
// Result. This logger covers operational concerns: file loading, run
// timing, persistence failures.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger with the given format ("text" or "json") and
// level ("debug", "info", "warn", "error").
func New(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
