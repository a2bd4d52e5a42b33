package logger

import (
	"io"
	"log/slog"
	"os"
)

var Log = slog.Default()

// Setup initializes the global logger based on the environment.
// If env is "production", it uses a JSON handler.
// Otherwise, it uses a text handler (more human-readable).
func Setup(env string) {
	SetupWriter(env, os.Stdout)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(env string, w io.Writer) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}
