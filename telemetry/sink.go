// Package telemetry hoists scattered fmt.Println/log.Panic-style debug output
// behind a single structured sink. Components accept a Sink and never write
// to stdout or panic on a validation/storage failure.
package telemetry

import (
	"go.uber.org/zap"
)

// Sink is the minimal structured-logging surface the core depends on. It is
// satisfied by *ZapSink and by Nop. A nil Sink is not callable itself;
// components pass whatever they receive through OrNop, so they can be unit
// tested with a nil Sink and without constructing a real logger.
type Sink interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// ZapSink adapts a *zap.SugaredLogger to Sink.
type ZapSink struct {
	log *zap.SugaredLogger
}

// NewZapSink builds a production zap logger (JSON, info level) wrapped as a
// Sink. Callers that want development-friendly console output should build
// their own *zap.Logger and use NewFromZap instead.
func NewZapSink() (*ZapSink, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewFromZap(logger), nil
}

// NewFromZap wraps an existing *zap.Logger.
func NewFromZap(logger *zap.Logger) *ZapSink {
	return &ZapSink{log: logger.Sugar()}
}

func (s *ZapSink) Debugw(msg string, kv ...interface{}) { s.log.Debugw(msg, kv...) }
func (s *ZapSink) Infow(msg string, kv ...interface{}) { s.log.Infow(msg, kv...) }
func (s *ZapSink) Warnw(msg string, kv ...interface{}) { s.log.Warnw(msg, kv...) }
func (s *ZapSink) Errorw(msg string, kv ...interface{}) { s.log.Errorw(msg, kv...) }

// Sync flushes any buffered log entries; call before process exit.
func (s *ZapSink) Sync() error { return s.log.Sync() }

// nopSink discards everything. Used as the default when a component is
// constructed without an explicit Sink (e.g. in tests).
type nopSink struct{}

func (nopSink) Debugw(string, ...interface{}) {}
func (nopSink) Infow(string, ...interface{}) {}
func (nopSink) Warnw(string, ...interface{}) {}
func (nopSink) Errorw(string, ...interface{}) {}

// Nop is a Sink that discards everything.
var Nop Sink = nopSink{}

// OrNop returns s if non-nil, else Nop. Components call this once in their
// constructor so the rest of their code can call s.Infow unconditionally.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}
