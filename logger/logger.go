package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is attached to every entry so agenda logs can be told apart in a
// shared sink.
const Service = "trainagenda"

// New builds a JSON zap logger.
// Debug mode keeps JSON output but lowers the level to debug. A non-empty
// level overrides either default.
func New(debug bool, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	lvl, err := Level(debug, level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": Service}
	return cfg.Build()
}

// Level resolves the effective log level.
func Level(debug bool, level string) (zapcore.Level, error) {
	if level != "" {
		return zapcore.ParseLevel(level)
	}
	if debug {
		return zap.DebugLevel, nil
	}
	return zap.InfoLevel, nil
}
