package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/emiliopalmerini/chatsrt/internal/infrastructure/config"
)

// newLogger builds the diagnostic logger. Unknown levels fall back to info
// with a warning.
func newLogger(cfg config.Logging, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	known := true
	switch strings.ToLower(cfg.Level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		known = false
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if !known {
		logger.Warn("unknown log level, using info", slog.String("value", cfg.Level))
	}
	return logger
}
