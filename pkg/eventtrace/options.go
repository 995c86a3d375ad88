package eventtrace

import "github.com/randalmurphal/eventtrace/pkg/eventtrace/logsink"

// Severity is the importance of an event. See logsink.Severity.
type Severity = logsink.Severity

// Severity levels, re-exported from logsink.
const (
	Verbose = logsink.Verbose
	Debug   = logsink.Debug
	Info    = logsink.Info
	Warn    = logsink.Warn
	Error   = logsink.Error
)

// EventOptions is the static per-event configuration: the severity the event
// is logged at and which extras the log line carries.
type EventOptions struct {
	// Severity of the event.
	// Default: Debug
	Severity Severity

	// IncludeStackTrace appends the full text (%+v) of error arguments.
	// Default: true
	IncludeStackTrace bool

	// IncludeTaggingName prefixes the line with the proxy's tagging name.
	// Default: false
	IncludeTaggingName bool

	// IncludeSourceLocation captures and prints the emitting call site.
	// Default: false
	IncludeSourceLocation bool

	// IncludeInterfaceName prefixes the event name with its contract name.
	// Default: false
	IncludeInterfaceName bool
}

// DefaultEventOptions applies to events with no overrides.
var DefaultEventOptions = EventOptions{
	Severity:          Debug,
	IncludeStackTrace: true,
}

// Option overrides one field of EventOptions.
// Options attached to a contract apply to all its events; options attached
// to an event apply after the contract's.
type Option func(*EventOptions)

// WithSeverity sets the event severity.
func WithSeverity(sev Severity) Option {
	return func(o *EventOptions) {
		o.Severity = sev
	}
}

// WithStackTrace controls whether error arguments are printed in full.
func WithStackTrace(on bool) Option {
	return func(o *EventOptions) {
		o.IncludeStackTrace = on
	}
}

// WithTaggingName controls whether the tagging name prefixes the line.
func WithTaggingName(on bool) Option {
	return func(o *EventOptions) {
		o.IncludeTaggingName = on
	}
}

// WithSourceLocation controls whether the call site is captured and printed.
func WithSourceLocation(on bool) Option {
	return func(o *EventOptions) {
		o.IncludeSourceLocation = on
	}
}

// WithInterfaceName controls whether the contract name prefixes the event name.
func WithInterfaceName(on bool) Option {
	return func(o *EventOptions) {
		o.IncludeInterfaceName = on
	}
}

func (o EventOptions) apply(opts []Option) EventOptions {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
