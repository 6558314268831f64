// Package logging provides the structured logging interface used across the
// gateway. It is intentionally narrow so that the rest of the codebase never
// imports zap directly.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface shared across the gateway.
// kv is a sequence of alternating key/value pairs, matching zap's
// SugaredLogger convention.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewProduction builds a JSON zap logger writing to stderr at info level.
func NewProduction() (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: base.Sugar()}, nil
}

// NewDevelopment builds a human-readable logger writing to stdout, for local
// development.
func NewDevelopment() Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a minimal logger rather than failing startup over
		// a logging misconfiguration.
		base = zap.NewNop()
		_ = os.Stderr
	}
	return &zapLogger{s: base.Sugar()}
}

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: l.s.With(kv...)}
}

// NoOp is a logger that discards everything; used in tests and as a safe
// default when no logger is injected.
type NoOp struct{}

func (NoOp) Debug(string, ...any)  {}
func (NoOp) Info(string, ...any)   {}
func (NoOp) Warn(string, ...any)   {}
func (NoOp) Error(string, ...any)  {}
func (NoOp) With(...any) Logger    { return NoOp{} }
