package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Zap wraps a sugared zap logger behind the Logger interface.
type Zap struct {
	log *zap.SugaredLogger
}

// NewZap builds a production zap logger at the given level. Unknown level
// strings fall back to info.
func NewZap(level string) Logger {
	cfg := zap.NewProductionConfig()

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	log, _ := cfg.Build()
	return &Zap{log: log.Sugar()}
}

func (z *Zap) Debug(msg string, keyvals ...any) { z.log.Debugw(msg, keyvals...) }
func (z *Zap) Info(msg string, keyvals ...any)  { z.log.Infow(msg, keyvals...) }
func (z *Zap) Warn(msg string, keyvals ...any)  { z.log.Warnw(msg, keyvals...) }
func (z *Zap) Error(msg string, keyvals ...any) { z.log.Errorw(msg, keyvals...) }
