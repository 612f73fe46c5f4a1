// Package logging holds the process-wide structured logger used by modelkit.
//
// Library code logs through L(), which is a no-op logger until a host
// installs one with SetLogger. The CLI builds its logger from configuration
// with New.
package logging

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// L returns the process logger.
func L() *zap.Logger {
	return current.Load()
}

// SetLogger replaces the process logger. A nil logger installs a no-op logger.
// It returns a function that restores the previous logger.
func SetLogger(l *zap.Logger) func() {
	if l == nil {
		l = zap.NewNop()
	}
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

// New builds a logger for the given level name ("debug", "info", "warn",
// "error"). Development loggers use the console encoder.
func New(level string, development bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
