package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the JSON logger, wraps it with context correlation and
// installs it as slog.Default.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	log := slog.New(NewContextHandler(handler)).With("service", ServiceName)
	slog.SetDefault(log)

	return log
}
