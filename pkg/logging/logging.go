package logging

import (
	"log/slog"
	"os"
)

// New builds the service-wide JSON logger and installs it as the slog default.
func New() *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
