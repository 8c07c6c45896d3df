// Package logging holds the process-wide zap logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// Init builds the logger from the configured level. development switches to the
// human-readable console encoder.
func Init(level string, development bool) error {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// L returns the current logger. It is a no-op logger until Init succeeds.
func L() *zap.Logger { return logger }

// Set replaces the logger, mostly for tests.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

func Sync() {
	_ = logger.Sync()
}
