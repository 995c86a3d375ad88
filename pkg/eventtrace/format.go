package eventtrace

import (
	"fmt"
	"strings"
)

// Describe formats rec as a log line:
//
//	[tag: ][contract.]event(name=value, ...)[ [context=label]][ {k=v, ...}][ (at file:line)]
//
// followed by the detailed text of error arguments, one per line, when the
// event includes stack traces. Well-formed plain-log records describe as
// their message.
func (s *System) Describe(rec *Record) string {
	if _, plain := plainLogSeverity(rec.event); plain {
		if msg, _, ok := plainLogShape(rec.args); ok {
			return msg
		}
	}

	opts := s.recordOptions(rec)

	var b strings.Builder
	if opts.IncludeTaggingName && rec.tag != "" {
		b.WriteString(rec.tag)
		b.WriteString(": ")
	}
	if opts.IncludeInterfaceName {
		b.WriteString(rec.contract)
		b.WriteByte('.')
	}
	b.WriteString(rec.event)
	b.WriteByte('(')
	named := rec.argNames != nil && len(rec.argNames) == len(rec.args)
	for i, arg := range rec.args {
		if i > 0 {
			b.WriteString(", ")
		}
		if named {
			b.WriteString(rec.argNames[i])
			b.WriteByte('=')
		}
		b.WriteString(s.renderers.Render(arg))
	}
	b.WriteByte(')')

	if rec.context != "" {
		b.WriteString(" [context=")
		b.WriteString(rec.context)
		b.WriteByte(']')
	}
	if rec.hasDiag {
		b.WriteByte(' ')
		b.WriteString(rec.diagnostics.String())
	}
	if opts.IncludeSourceLocation && rec.origin != nil {
		b.WriteString(" (at ")
		b.WriteString(rec.origin.Location())
		b.WriteByte(')')
	}
	if opts.IncludeStackTrace {
		for _, arg := range rec.args {
			err, ok := ErrorArg(arg)
			if !ok {
				continue
			}
			// Only errors that format more than their message, such as
			// errors carrying a stack, add a section.
			if detail := fmt.Sprintf("%+v", err); detail != err.Error() {
				b.WriteByte('\n')
				b.WriteString(detail)
			}
		}
	}
	return b.String()
}

// LogConsumer writes every record it receives to the System's sink, at the
// record's severity. It is how records are logged in asynchronous mode:
//
//	sys.SetSyncLogging(false)
//	sys.AddConsumer(eventtrace.NewLogConsumer(sys))
type LogConsumer struct {
	sys *System
}

// NewLogConsumer creates a LogConsumer for s.
func NewLogConsumer(s *System) *LogConsumer {
	return &LogConsumer{sys: s}
}

// Consume implements Consumer.
func (c *LogConsumer) Consume(rec *Record) {
	sink := c.sys.Sink()
	if sev, plain := plainLogSeverity(rec.event); plain {
		if msg, cause, ok := plainLogShape(rec.args); ok {
			sink.Log(sev, sinkTag(rec), msg, cause)
			return
		}
	}
	sink.Log(rec.severity, sinkTag(rec), c.sys.Describe(rec), nil)
}
