// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
)

// New builds a text logger on w. Debug lowers the level and adds file:line.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
}

// Init installs New(w, debug) as the default so stdlib log output routes
// through slog too.
func Init(w io.Writer, debug bool) *slog.Logger {
	l := New(w, debug)
	slog.SetDefault(l)
	return l
}

// Discard drops everything; tests and quiet commands use it.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
