package eventtrace

import (
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace/diag"
)

// Record describes one emitted event. Records are immutable once created;
// accessors that return slices return copies.
type Record struct {
	timestamp   time.Time
	severity    Severity
	sourceType  string
	tag         string
	context     string
	diagnostics diag.Map
	hasDiag     bool
	contract    string
	event       string
	args        []any
	argNames    []string
	origin      *Origin
}

// RecordFields holds the values for NewRecord.
type RecordFields struct {
	Timestamp   time.Time
	Severity    Severity
	SourceType  string
	Tag         string
	Context     string
	Diagnostics *diag.Map // nil = absent
	Contract    string
	Event       string
	Args        []any
	ArgNames    []string // nil = absent
	Origin      *Origin
}

// NewRecord builds a record from f, copying its slices.
// It is used by custom producers and tests; proxies build records themselves.
func NewRecord(f RecordFields) *Record {
	r := &Record{
		timestamp:  f.Timestamp,
		severity:   f.Severity,
		sourceType: f.SourceType,
		tag:        f.Tag,
		context:    f.Context,
		contract:   f.Contract,
		event:      f.Event,
		args:       slices.Clone(f.Args),
		argNames:   slices.Clone(f.ArgNames),
		origin:     f.Origin,
	}
	if r.args == nil {
		r.args = []any{}
	}
	if f.Diagnostics != nil {
		r.diagnostics = *f.Diagnostics
		r.hasDiag = true
	}
	return r
}

// Timestamp returns when the event was emitted.
func (r *Record) Timestamp() time.Time { return r.timestamp }

// Severity returns the resolved severity.
func (r *Record) Severity() Severity { return r.severity }

// SourceType returns the name of the type that owns the emitting proxy.
func (r *Record) SourceType() string { return r.sourceType }

// Tag returns the optional tagging name of the emitting proxy.
func (r *Record) Tag() string { return r.tag }

// Context returns the context label used for consumer filtering.
func (r *Record) Context() string { return r.context }

// Diagnostics returns the diagnostic snapshot taken at emission, if any.
func (r *Record) Diagnostics() (diag.Map, bool) { return r.diagnostics, r.hasDiag }

// Contract returns the name of the declaring contract.
func (r *Record) Contract() string { return r.contract }

// Event returns the event name.
func (r *Record) Event() string { return r.event }

// Arity returns the number of arguments.
func (r *Record) Arity() int { return len(r.args) }

// Args returns a copy of the arguments.
func (r *Record) Args() []any { return slices.Clone(r.args) }

// Arg returns argument i, or nil if out of range.
func (r *Record) Arg(i int) any {
	if i < 0 || i >= len(r.args) {
		return nil
	}
	return r.args[i]
}

// ArgNames returns a copy of the argument names, or nil if unavailable.
func (r *Record) ArgNames() []string { return slices.Clone(r.argNames) }

// Origin returns the captured call site, or nil.
func (r *Record) Origin() *Origin { return r.origin }

// NamedArgs maps argument names to values.
// It fails with ErrNoArgNames when names are unavailable and with
// ErrArgNamesMismatch when the name and argument counts differ.
func (r *Record) NamedArgs() (map[string]any, error) {
	if r.argNames == nil {
		return nil, fmt.Errorf("%s.%s: %w", r.contract, r.event, ErrNoArgNames)
	}
	if len(r.argNames) != len(r.args) {
		return nil, fmt.Errorf("%s.%s: %w: %d names for %d args",
			r.contract, r.event, ErrArgNamesMismatch, len(r.argNames), len(r.args))
	}
	out := make(map[string]any, len(r.args))
	for i, name := range r.argNames {
		out[name] = r.args[i]
	}
	return out, nil
}

// Equal reports whether two records are structurally equal.
// Arguments are compared deeply; origins only by identity or location.
func (r *Record) Equal(other *Record) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil {
		return false
	}
	return r.timestamp.Equal(other.timestamp) &&
		r.severity == other.severity &&
		r.sourceType == other.sourceType &&
		r.tag == other.tag &&
		r.context == other.context &&
		r.hasDiag == other.hasDiag &&
		r.diagnostics.Equal(other.diagnostics) &&
		r.contract == other.contract &&
		r.event == other.event &&
		reflect.DeepEqual(r.args, other.args) &&
		(r.argNames == nil) == (other.argNames == nil) &&
		slices.Equal(r.argNames, other.argNames) &&
		r.origin.sameAs(other.origin)
}

// String returns a compact description, mainly for debugging.
func (r *Record) String() string {
	return fmt.Sprintf("%s.%s/%d[%s]", r.contract, r.event, len(r.args), r.severity)
}

// Origin is the call site that emitted an event.
type Origin struct {
	function string
	file     string
	line     int
	pcs      []uintptr
}

// captureOrigin records the first caller outside this package, after
// skipping skip further frames.
func captureOrigin(skip int) *Origin {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	pcs = pcs[:n]

	frames := runtime.CallersFrames(pcs)
	skipped := 0
	for {
		frame, more := frames.Next()
		if !isOwnFrame(frame.Function) {
			if skip == 0 {
				return &Origin{
					function: frame.Function,
					file:     frame.File,
					line:     frame.Line,
					pcs:      pcs[min(skipped, len(pcs)):],
				}
			}
			skip--
		}
		skipped++
		if !more {
			return nil
		}
	}
}

const ownPackage = "github.com/randalmurphal/eventtrace/pkg/eventtrace."

func isOwnFrame(fn string) bool {
	return strings.HasPrefix(fn, ownPackage)
}

// Function returns the fully qualified function name of the call site.
func (o *Origin) Function() string { return o.function }

// Location returns "file:line".
func (o *Origin) Location() string {
	return fmt.Sprintf("%s:%d", o.file, o.line)
}

// StackTrace renders the captured stack, one "function\n\tfile:line" per frame.
func (o *Origin) StackTrace() string {
	if len(o.pcs) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(o.pcs)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

func (o *Origin) sameAs(other *Origin) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return false
	}
	return o.function == other.function && o.file == other.file && o.line == other.line
}
