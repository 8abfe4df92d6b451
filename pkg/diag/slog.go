package diag

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogSink writes diagnostics to a log/slog logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps logger. A nil logger uses slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Log implements Sink.
func (s *SlogSink) Log(level Level, component, format string, args ...any) {
	lvl := SlogLevel(level)
	ctx := context.Background()
	if !s.logger.Enabled(ctx, lvl) {
		return
	}
	s.logger.Log(ctx, lvl, fmt.Sprintf(format, args...),
		slog.String("component", component),
		slog.String("severity", level.String()),
	)
}

// SlogLevel maps a Level onto the four slog levels.
func SlogLevel(level Level) slog.Level {
	switch {
	case level <= Error:
		return slog.LevelError
	case level == Warning:
		return slog.LevelWarn
	case level <= Info:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
