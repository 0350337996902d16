// Package logging builds the slog logger used by the CLI. Core packages
// stay silent and return errors; only the command layer logs.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a text-handler logger at the named level. Unknown names
// fall back to warn.
func New(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	return slog.New(handler)
}
