// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the log level profile and the log file.
type Config struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// New builds a console-encoded zap.Logger writing human-readable lines to stdout and,
// when File is set, appending the same lines to that file.
func New(cfg Config) (*zap.Logger, error) {
	outputs := []string{"stdout"}
	if cfg.File != "" {
		outputs = append(outputs, cfg.File)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Encoding = "console"
	zcfg.OutputPaths = outputs
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = !cfg.Development
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
