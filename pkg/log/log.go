// Package log configures the process-wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
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

// Setup installs a text logger on stderr as the default logger.
func Setup(logLevel string) *slog.Logger {
	return SetupWriter(os.Stderr, logLevel)
}

// SetupWriter installs a text logger writing to w as the default logger.
func SetupWriter(w io.Writer, logLevel string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	}))

	slog.SetDefault(logger)

	return logger
}

// WithModule returns the default logger tagged with module.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
