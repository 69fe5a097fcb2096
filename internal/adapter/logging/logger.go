package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
)

var _ primary.Logger = (*ZapLogger)(nil)

// ZapLogger implements the Logger interface with zap
type ZapLogger struct {
	logger *zap.SugaredLogger
}

type options struct {
	level       zapcore.Level
	outputPaths []string
}

// Option configures NewZapLogger
type Option func(*options)

// WithLevel sets the minimum level from its name (debug, info, warn, error).
// Unknown names fall back to info.
func WithLevel(level string) Option {
	return func(o *options) {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(level))); err == nil {
			o.level = l
		}
	}
}

// WithOutput sets where log lines go. Worker processes must log to stderr
// since their stdout carries IPC frames.
func WithOutput(paths ...string) Option {
	return func(o *options) {
		o.outputPaths = paths
	}
}

// NewZapLogger creates a new zap logger
func NewZapLogger(opts ...Option) *ZapLogger {
	o := &options{level: zapcore.InfoLevel, outputPaths: []string{"stdout"}}
	for _, opt := range opts {
		opt(o)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(o.level)
	config.OutputPaths = o.outputPaths
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		logger = zap.NewNop()
	}

	return &ZapLogger{
		logger: logger.Sugar(),
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

// Info logs an info message
func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.logger.Infow(msg, args...)
}

// Error logs an error message
func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.logger.Errorw(msg, args...)
}

// Debug logs a debug message
func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debugw(msg, args...)
}

// Warn logs a warning message
func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warnw(msg, args...)
}

// With returns a child logger carrying the given key/values on every line.
func (l *ZapLogger) With(args ...interface{}) primary.Logger {
	return &ZapLogger{logger: l.logger.With(args...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
