package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the default slog logger: a text handler on stderr at Info,
// or Debug when verbose.
func Setup(verbose bool) *slog.Logger {
	return SetupWriter(os.Stderr, verbose)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}
