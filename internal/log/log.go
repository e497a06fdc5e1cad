// Package log is the logging surface for light-puppet, a thin wrap
// around slog behind a package-level logger. Records go to stderr;
// stdout is reserved for the startup banner and the -print stream.
// PUPPET_LOG_FORMAT forces the handler (json or text); otherwise JSON
// is used when PUPPET_ENV is production and text everywhere else.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Init builds the package logger at the given level and installs it
// as the slog default. Later calls are no-ops.
func Init(level string) {
	once.Do(func() {
		logger = newLogger(os.Stderr, level)
		slog.SetDefault(logger)
	})
}

func newLogger(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if jsonOutput() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel is lenient: unknown strings fall back to info rather
// than failing startup over a typo in a config file.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func jsonOutput() bool {
	switch os.Getenv("PUPPET_LOG_FORMAT") {
	case "json":
		return true
	case "text":
		return false
	}
	return os.Getenv("PUPPET_ENV") == "production"
}

// L returns the package logger, initializing it at info level if Init
// was never called.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs through the package logger.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs through the package logger.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs through the package logger.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs through the package logger.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
