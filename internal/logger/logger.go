// Package logger wraps zap configuration for the application.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger carries the application's structured logger.
type Logger struct {
	// Log is the underlying zap logger. It is a no-op until Init is called.
	Log *zap.Logger
}

// New returns a Logger with a no-op zap logger, safe to use before Init.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init replaces the logger with a production zap logger at the given
// level ("debug", "info", "warn", "error"). Returns an error if the
// level cannot be parsed or the logger cannot be built.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	z, err := cfg.Build()
	if err != nil {
		return err
	}

	l.Log = z
	return nil
}
