package gifenc

import "go.uber.org/zap"

// Logger is the compile-time logging hook the container writer calls for
// frame-level diagnostics: one Debugf line per frame with its dimensions,
// sample factor and delay. Warnf is part of the interface but the writer
// does not call it. It replaces the reference encoder's
// runtime-settable global print hook (spec.md §9) with an interface
// supplied by the caller at construction time.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// nopLogger discards everything; it is the default when no logger is
// configured via WithLogger.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// ZapLogger adapts a *zap.SugaredLogger to the Logger interface.
type ZapLogger struct {
	S *zap.SugaredLogger
}

// NewZapLogger wraps s.
func NewZapLogger(s *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{S: s}
}

func (l *ZapLogger) Debugf(format string, args ...interface{}) { l.S.Debugf(format, args...) }
func (l *ZapLogger) Warnf(format string, args ...interface{})  { l.S.Warnf(format, args...) }
