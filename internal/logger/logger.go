// Package logger builds the application's slog logger from config.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a logger writing to stderr. Production gets JSON for log
// aggregation; everything else gets human-readable text.
func New(format string, production bool) *slog.Logger {
	return NewWithOutput(format, production, os.Stderr)
}

func NewWithOutput(format string, production bool, out io.Writer) *slog.Logger {
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" || production {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}
