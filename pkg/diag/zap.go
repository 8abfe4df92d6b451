package diag

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapSink writes diagnostics to a zap logger.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps logger. A nil logger discards everything.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Log implements Sink.
func (s *ZapSink) Log(level Level, component, format string, args ...any) {
	ce := s.logger.Check(ZapLevel(level), "")
	if ce == nil {
		return
	}
	ce.Message = fmt.Sprintf(format, args...)
	ce.Write(
		zap.String("component", component),
		zap.Stringer("severity", level),
	)
}

// ZapLevel maps a Level onto zap's levels. Emergency and Alert map to
// ErrorLevel, not to the panicking or exiting levels.
func ZapLevel(level Level) zapcore.Level {
	switch {
	case level <= Error:
		return zapcore.ErrorLevel
	case level == Warning:
		return zapcore.WarnLevel
	case level <= Info:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
