package config

import (
	"context"
	"log/slog"
	"os"
)

// loggerKey is used to store the logger in the command context. It lives
// here so the commands package can retrieve it without an import cycle
// against the cli package.
type loggerKey struct{}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// NewLogger builds the CLI logger. Verbose enables debug level; output
// always goes to stderr so it never mixes with rendered results.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
