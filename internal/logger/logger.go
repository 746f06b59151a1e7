package logger

import (
	"log/slog"
	"os"
)

// New builds the process-wide structured logger: one JSON object per line on
// stdout, info level and up.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
