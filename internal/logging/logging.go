// Package logging builds the application's zap logger. The terminal UI
// owns stdout, so production logs go to a file.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nalibo/nalibopath/internal/config"
	"github.com/nalibo/nalibopath/internal/store"
)

// New returns a JSON file logger, or a colored console logger on stderr
// in development. The caller should Sync the logger before exiting.
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	if cfg.Development() {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.OutputPaths = []string{"stderr"}
		if cfg.LogFile != "" {
			zc.OutputPaths = append(zc.OutputPaths, cfg.LogFile)
		}
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
		zc.OutputPaths = []string{cfg.LogFile}
		zc.ErrorOutputPaths = []string{cfg.LogFile}
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	for _, p := range zc.OutputPaths {
		if p == "stderr" || p == "stdout" {
			continue
		}
		if err := store.EnsureDir(p); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.With(zap.String("env", cfg.Env)), nil
}
