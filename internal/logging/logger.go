// Package logging provides slog setup for routectl's two run shapes:
// a one-shot create-routes/delete-routes invocation (typically piped
// into a log collector, so JSON) and the interactive REPL (read by a
// person at a terminal, so plain text reads better). Setup picks the
// handler from format; ForBackend tags every subsequent log line with
// which of the three routing backends produced it, since a run's
// logs otherwise give no hint which engine compiled a given rule.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the default slog logger for the given level,
// format ("json" or "text"; anything else falls back to json), and
// output.
func Setup(level, format string, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ForBackend returns a child logger with the active routing backend
// attached to every record it writes, so a run's logs stay
// attributable once any of astar, dijkstra-cpu, or dijkstra-gpu is
// selected.
func ForBackend(base *slog.Logger, backend string) *slog.Logger {
	return base.With("backend", backend)
}

// ParseLevel converts a string level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
