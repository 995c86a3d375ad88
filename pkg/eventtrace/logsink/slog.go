package logsink

import (
	"context"
	"log/slog"
)

// LevelVerbose is the slog level used for Verbose lines.
const LevelVerbose = slog.LevelDebug - 4

// Slog forwards lines to a *slog.Logger.
type Slog struct {
	logger *slog.Logger
}

// NewSlog wraps logger. A nil logger means slog.Default().
func NewSlog(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slog{logger: logger}
}

// Log implements Sink.
func (s *Slog) Log(sev Severity, tag, msg string, cause error) {
	attrs := make([]slog.Attr, 0, 2)
	if tag != "" {
		attrs = append(attrs, slog.String("tag", tag))
	}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	s.logger.LogAttrs(context.Background(), SlogLevel(sev), msg, attrs...)
}

// SlogLevel maps a Severity onto a slog.Level.
func SlogLevel(sev Severity) slog.Level {
	switch sev {
	case Verbose:
		return LevelVerbose
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warn:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
