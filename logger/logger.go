// ABOUTME: Structured logging setup for the planner service and CLI
// ABOUTME: Builds slog handlers from LOG_LEVEL and LOG_FORMAT and installs the default

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the default slog logger writing to stdout.
// LOG_LEVEL: debug, info, warn, error (default: info)
// LOG_FORMAT: text, json (default: text)
func Init() {
	slog.SetDefault(New(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")))
}

// InitCLI installs a logger on stderr so command output on stdout stays
// parseable. verbose forces debug level.
func InitCLI(verbose bool) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	if verbose {
		level = "debug"
	}
	slog.SetDefault(New(os.Stderr, level, os.Getenv("LOG_FORMAT")))
}

// New builds a logger for w. Unknown levels fall back to info and unknown
// formats to text.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
