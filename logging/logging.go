package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lixenwraith/stramash/config"
)

// New builds the process logger from the [logging] section
// The returned level can be changed at runtime, e.g. on config reload
func New(cfg config.LoggingConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(orDefault(cfg.Level, "info"))
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("logging level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.Encoding = orDefault(cfg.Format, "console")
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = true
	zc.Sampling = nil
	if zc.Encoding == "console" {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	log, err := zc.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("logging build: %w", err)
	}
	return log, level, nil
}

// SetLevel applies a level name to an existing logger level
func SetLevel(level zap.AtomicLevel, name string) error {
	l, err := zapcore.ParseLevel(orDefault(name, "info"))
	if err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	level.SetLevel(l)
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
