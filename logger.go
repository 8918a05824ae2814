package main

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a structured slog.Logger writing to stdout with the given
// level. format "text" selects the text handler, anything else JSON.
func NewLogger(level slog.Leveler, format string) *slog.Logger {
	return newLogger(os.Stdout, level, format)
}

func newLogger(w io.Writer, level slog.Leveler, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
