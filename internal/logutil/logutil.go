// Package logutil builds the zap logger the compiler threads through every
// component, sized from the CLI's -v/-vv/-vvv verbosity count.
package logutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors spec.md §6's three verbosity steps above the default.
type Level int

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
	LevelTrace
)

// FromVerbosity maps a pflag.Count() value to a Level, clamping anything
// above -vvv to trace.
func FromVerbosity(count int) Level {
	switch {
	case count <= 0:
		return LevelWarn
	case count == 1:
		return LevelInfo
	case count == 2:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// New builds a *zap.Logger at the given level. Trace is modeled as debug
// with every log line carrying a "trace":true field, since zapcore has no
// level below debug.
func New(level Level) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	switch level {
	case LevelWarn:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case LevelInfo:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if level == LevelTrace {
		logger = logger.With(zap.Bool("trace", true))
	}
	return logger, nil
}
