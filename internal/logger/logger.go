// Package logger configures the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// Setup installs the default slog handler. Debug lowers the level so
// per-item skip decisions show up in the output.
func Setup(debug bool) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if debug {
		opts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}
