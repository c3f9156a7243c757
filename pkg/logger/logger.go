package logger

import (
	"log/slog"
	"os"
)

// SetupGlobal installs the process-wide slog logger. Log lines go to stderr
// so the interactive prompts and progress lines on stdout stay readable.
func SetupGlobal(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}
