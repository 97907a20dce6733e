package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a zap logger. "debug" selects the development config
// (console, debug level); anything else builds the production JSON logger at
// the requested level.
func NewLogger(service, level string) (*zap.Logger, error) {
	lvl := parseLevel(level)
	if lvl == zapcore.DebugLevel {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return logger.With(zap.String("service", service)), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", service)), nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
