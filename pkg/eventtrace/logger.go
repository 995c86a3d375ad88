package eventtrace

import (
	"context"
	"fmt"
	"strings"
)

// LogContract declares the plain-log events. Events named like these
// (verbose, debug, info, warn, error) are plain logs in any contract: they
// take (message string) or (message string, cause error) and are logged
// verbatim at the severity of their name.
var LogContract = NewContract("eventtrace.Log", WithStackTrace(false))

// Plain-log events.
var (
	LogVerbose      = LogContract.Event("verbose", []string{"message"}, WithSeverity(Verbose))
	LogVerboseCause = LogContract.Event("verbose", []string{"message", "cause"}, WithSeverity(Verbose))
	LogDebug        = LogContract.Event("debug", []string{"message"}, WithSeverity(Debug))
	LogDebugCause   = LogContract.Event("debug", []string{"message", "cause"}, WithSeverity(Debug))
	LogInfo         = LogContract.Event("info", []string{"message"}, WithSeverity(Info))
	LogInfoCause    = LogContract.Event("info", []string{"message", "cause"}, WithSeverity(Info))
	LogWarn         = LogContract.Event("warn", []string{"message"}, WithSeverity(Warn))
	LogWarnCause    = LogContract.Event("warn", []string{"message", "cause"}, WithSeverity(Warn))
	LogError        = LogContract.Event("error", []string{"message"}, WithSeverity(Error))
	LogErrorCause   = LogContract.Event("error", []string{"message", "cause"}, WithSeverity(Error))
)

var plainLogNames = map[string]Severity{
	"verbose": Verbose,
	"debug":   Debug,
	"info":    Info,
	"warn":    Warn,
	"error":   Error,
}

func plainLogSeverity(event string) (Severity, bool) {
	sev, ok := plainLogNames[event]
	return sev, ok
}

// plainLogShape checks args against (string) and (string, error).
// A nil cause, including a nil pointer error, is accepted and returned as nil.
func plainLogShape(args []any) (msg string, cause error, ok bool) {
	if len(args) < 1 || len(args) > 2 {
		return "", nil, false
	}
	msg, ok = args[0].(string)
	if !ok {
		return "", nil, false
	}
	if len(args) == 1 || args[1] == nil {
		return msg, nil, true
	}
	if _, isErr := args[1].(error); !isErr {
		return "", nil, false
	}
	cause, _ = ErrorArg(args[1])
	return msg, cause, true
}

func argTypes(args []any) string {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = fmt.Sprintf("%T", a)
	}
	return strings.Join(types, ", ")
}

// Logger is a proxy for LogContract, for owners that only log.
type Logger struct {
	*Proxy
}

// NewLogger creates a Logger owned by owner.
func (s *System) NewLogger(owner any, opts ...ProxyOption) *Logger {
	return &Logger{Proxy: s.NewProxy(LogContract, owner, opts...)}
}

// Verbose logs msg at Verbose severity.
func (l *Logger) Verbose(ctx context.Context, msg string, cause ...error) {
	l.log(ctx, LogVerbose, LogVerboseCause, msg, cause)
}

// Debug logs msg at Debug severity.
func (l *Logger) Debug(ctx context.Context, msg string, cause ...error) {
	l.log(ctx, LogDebug, LogDebugCause, msg, cause)
}

// Info logs msg at Info severity.
func (l *Logger) Info(ctx context.Context, msg string, cause ...error) {
	l.log(ctx, LogInfo, LogInfoCause, msg, cause)
}

// Warn logs msg at Warn severity.
func (l *Logger) Warn(ctx context.Context, msg string, cause ...error) {
	l.log(ctx, LogWarn, LogWarnCause, msg, cause)
}

// Error logs msg at Error severity.
func (l *Logger) Error(ctx context.Context, msg string, cause ...error) {
	l.log(ctx, LogError, LogErrorCause, msg, cause)
}

func (l *Logger) log(ctx context.Context, plain, withCause *Event, msg string, cause []error) {
	if len(cause) == 0 {
		l.Emit(ctx, plain, msg)
		return
	}
	var err any
	if cause[0] != nil {
		err = cause[0]
	}
	l.Emit(ctx, withCause, msg, err)
}
