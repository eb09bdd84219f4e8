// Package logging builds the log/slog logger tensd runs with,
// rotating to disk via lumberjack when config.LoggingConfig.File is set.
//
// Grounded on the teacher pack's JSON-structured-logging convention
// (axonops's slog usage) plus gopkg.in/natefinch/lumberjack.v2 for file
// rotation, since config.LoggingConfig already carries MaxSizeMB/MaxBackups/
// MaxAgeDays fields that would otherwise have no consumer.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/coredatalabs/tens/internal/config"
)

// New builds a slog.Logger from cfg.Logging: JSON or text handler, level
// parsed from cfg.Logging.Level, writing to stderr or a rotated file.
func New(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
