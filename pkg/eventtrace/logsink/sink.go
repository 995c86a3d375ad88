// Package logsink provides the text-logger side of eventtrace: the Severity
// scale, the Sink interface records are written to, and a few Sink
// implementations.
//
// Implementations:
//   - Console: timestamped lines (or JSON) via zerolog, the default sink
//   - Slog: adapter for any *slog.Logger
//   - Memory: captures entries in memory, for tests
//   - Discard: drops everything
package logsink

import (
	"fmt"
	"strings"
)

// Severity is the importance of a log line or trace event.
// Severities are ordered: Verbose < Debug < Info < Warn < Error.
type Severity int

// Severity levels.
const (
	Verbose Severity = iota
	Debug
	Info
	Warn
	Error
)

// String returns the upper-case severity name.
func (s Severity) String() string {
	switch s {
	case Verbose:
		return "VERBOSE"
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// ParseSeverity parses a severity name, ignoring case.
// "warning" is accepted as an alias for Warn.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbose", "trace":
		return Verbose, nil
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Debug, fmt.Errorf("unknown severity %q", name)
	}
}

// Sink receives formatted log lines.
// Implementations must be safe for concurrent use; Log is called from
// producer goroutines (synchronous mode) and from the dispatch goroutine.
type Sink interface {
	Log(sev Severity, tag, msg string, cause error)
}

// Func adapts a function to the Sink interface.
type Func func(sev Severity, tag, msg string, cause error)

// Log implements Sink.
func (f Func) Log(sev Severity, tag, msg string, cause error) {
	f(sev, tag, msg, cause)
}

// Discard is a Sink that drops every line.
var Discard Sink = Func(func(Severity, string, string, error) {})
