// Package xlog provides the structured logger the Job Surface (job.Node)
// and the frostd command use, grounded on drand's common/log package: a small
// interface wrapping zap.SugaredLogger so call sites never import zap
// directly, plus a Nop implementation for tests.
package xlog

import (
	"go.uber.org/zap"
)

// Logger is the narrow structured-logging surface used throughout this
// module. Fields are key/value pairs in zap's own With/Infow style.
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
	With(kv ...interface{}) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New builds a production-configured Logger, grounded on drand's
// common/log.NewLogger default configuration (zap's production preset:
// JSON encoding, epoch-seconds timestamps under "ts", stack traces on
// error level).
func New() Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return &zapLogger{s: logger.Sugar()}
}

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) With(kv ...interface{}) Logger {
	return &zapLogger{s: l.s.With(kv...)}
}

type nopLogger struct{}

// Nop discards every log entry, for tests that don't care about log
// output.
var Nop Logger = nopLogger{}

func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}
func (nopLogger) With(...interface{}) Logger    { return nopLogger{} }
