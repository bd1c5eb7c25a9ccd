// Package utils holds the small cross-cutting helpers: logger construction
// and run identifiers.
package utils

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the root logger from the configured level filter and
// file path. An empty level defaults to info; an empty path logs to
// stderr. Components derive named children from the returned logger.
func NewLogger(levelFilter, filePath string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if levelFilter != "" {
		parsed, err := zapcore.ParseLevel(levelFilter)
		if err != nil {
			return nil, errors.Wrapf(err, "parse log level %q", levelFilter)
		}
		level = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.DisableStacktrace = true
	if filePath != "" {
		cfg.OutputPaths = []string{filePath}
		cfg.ErrorOutputPaths = []string{filePath}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}
