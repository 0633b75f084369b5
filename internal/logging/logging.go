// Package logging builds the zap logger every subsystem receives as a
// constructor argument. There is no package-global logger: each manager and
// system holds its own *zap.Logger field, named per-component (the teacher's
// pattern in internal/system).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ninesuns/jianghu/internal/config"
)

// New builds a zap logger from LoggingConfig. "console" gets a
// human-readable, colorized, caller-free encoder suited to local runs;
// anything else gets the production JSON encoder.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// NewNop returns a logger that discards everything, for tests that don't
// want to assert on log output.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
