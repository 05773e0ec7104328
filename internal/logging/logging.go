// Package logging builds the zap logger used by every binary.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted in configuration.
var Levels = []string{"DEBUG", "INFO", "WARNING", "ERROR"}

// ParseLevel maps a configured level name to a zap level. Case-insensitive.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zap.DebugLevel, nil
	case "INFO", "":
		return zap.InfoLevel, nil
	case "WARNING", "WARN":
		return zap.WarnLevel, nil
	case "ERROR":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("log level must be one of %s, got %q", strings.Join(Levels, ", "), level)
	}
}

// New builds a production logger writing to stdout with ISO8601 timestamps.
// encoding is "json" or "console".
func New(level, encoding string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if encoding != "" {
		cfg.Encoding = encoding
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if lvl == zap.DebugLevel {
		cfg.Development = true
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l, nil
}
