// Package logging carries the teacher's small Logger interface shape
// forward, backed in production by zap instead of a no-op, with log
// rotation via lumberjack.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the same shape as the teacher's pkg/orchestrator.Logger:
// message plus alternating key/value pairs. Every pipeline component
// takes one of these by constructor injection.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// NoOpLogger discards everything; the default for tests.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// zapLogger adapts a *zap.SugaredLogger to Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

// FileConfig controls lumberjack rotation when logging to a file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a production Logger. If file.Path is empty, logs go to
// stderr only; otherwise stderr and a rotated file both receive logs.
func New(file FileConfig, development bool) (Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zap.InfoLevel),
	}

	if file.Path != "" {
		rotate := &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    nonZero(file.MaxSizeMB, 50),
			MaxBackups: nonZero(file.MaxBackups, 5),
			MaxAge:     nonZero(file.MaxAgeDays, 14),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotate), zap.InfoLevel))
	}

	core := zapcore.NewTee(cores...)
	opts := []zap.Option{zap.AddCaller()}
	if development {
		opts = append(opts, zap.Development())
	}
	l := zap.New(core, opts...)
	return &zapLogger{s: l.Sugar()}, nil
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.s.Errorw(msg, kv...) }

func nonZero(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
