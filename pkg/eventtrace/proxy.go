package eventtrace

import (
	"context"
	"fmt"
	"slices"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace/diag"
)

// Tagger is implemented by proxy owners that supply their own tagging name.
type Tagger interface {
	TraceTag() string
}

// SignatureHandler is implemented by proxy owners that want to know about
// malformed plain-log calls.
type SignatureHandler interface {
	IncorrectLogSignature(rec *Record)
}

// Proxy emits the events of one contract on behalf of an owner.
//
// Typed proxies embed a Proxy and add one method per event:
//
//	type ConnTracer struct{ *eventtrace.Proxy }
//
//	func (t ConnTracer) Connected(ctx context.Context, addr string) {
//	    t.Emit(ctx, EvConnected, addr)
//	}
//
// Such a proxy is created WithCallerSkip(1), so source locations name the
// caller of Connected rather than Connected itself.
type Proxy struct {
	sys          *System
	contract     *Contract
	sourceType   string
	tag          string
	label        string
	callerSkip   int
	badSignature func(*Record)
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithTag sets the tagging name, which tells apart proxies of the same owner
// type. It takes precedence over the owner's Tagger implementation.
func WithTag(tag string) ProxyOption {
	return func(p *Proxy) {
		p.tag = tag
	}
}

// WithContextLabel sets the context label records carry. Consumer filters
// match against it.
func WithContextLabel(label string) ProxyOption {
	return func(p *Proxy) {
		p.label = label
	}
}

// WithCallerSkip sets how many wrapper frames between the emitting code and
// Emit are skipped when the source location is captured.
func WithCallerSkip(n int) ProxyOption {
	return func(p *Proxy) {
		p.callerSkip = max(n, 0)
	}
}

// WithSignatureHandler sets the function called for malformed plain-log
// calls. It takes precedence over the owner's SignatureHandler
// implementation.
func WithSignatureHandler(fn func(*Record)) ProxyOption {
	return func(p *Proxy) {
		p.badSignature = fn
	}
}

// NewProxy creates a proxy for contract c, owned by owner. The contract is
// declared on s; a conflicting declaration is logged and the proxy still
// works, but listeners resolve records against the first declaration.
func (s *System) NewProxy(c *Contract, owner any, opts ...ProxyOption) *Proxy {
	if c == nil {
		panic("eventtrace: NewProxy requires a contract")
	}

	p := &Proxy{
		sys:        s,
		contract:   c,
		sourceType: typeName(owner),
	}
	if t, ok := owner.(Tagger); ok {
		p.tag = t.TraceTag()
	}
	if h, ok := owner.(SignatureHandler); ok {
		p.badSignature = h.IncorrectLogSignature
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if err := s.Declare(c); err != nil {
		s.log(Error, "proxy for "+p.sourceType+": "+err.Error(), nil)
	}
	return p
}

// System returns the System the proxy emits into.
func (p *Proxy) System() *System { return p.sys }

// Contract returns the proxied contract.
func (p *Proxy) Contract() *Contract { return p.contract }

// SourceType returns the owner's type name.
func (p *Proxy) SourceType() string { return p.sourceType }

// Tag returns the tagging name.
func (p *Proxy) Tag() string { return p.tag }

// ContextLabel returns the context label.
func (p *Proxy) ContextLabel() string { return p.label }

// Emit emits ev with args. It never blocks and never fails: problems are
// logged, and a record rejected by a full queue is counted as lost.
//
// Diagnostic entries carried by ctx (see package diag) are captured in the
// record.
func (p *Proxy) Emit(ctx context.Context, ev *Event, args ...any) {
	s := p.sys
	if !s.active() || ev == nil || ev.reserved {
		return
	}
	if ev.contract != p.contract {
		s.log(Error, fmt.Sprintf("%s emitted through a proxy for %s by %s", ev, p.contract.name, p.sourceType), nil)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := s.EventOptions(ev)
	rec := &Record{
		timestamp:  s.clock(),
		severity:   opts.Severity,
		sourceType: p.sourceType,
		tag:        p.tag,
		context:    p.label,
		contract:   p.contract.name,
		event:      ev.name,
		args:       slices.Clone(args),
	}
	if rec.args == nil {
		rec.args = []any{}
	}
	if len(args) == len(ev.params) {
		rec.argNames = ev.params
	}
	if snap, ok := diag.Snapshot(ctx); ok {
		rec.diagnostics = snap
		rec.hasDiag = true
	}
	if opts.IncludeSourceLocation {
		rec.origin = captureOrigin(p.callerSkip)
	}

	if s.syncLogging.Load() {
		p.logSync(rec)
	}
	s.offer(ctx, rec)
}

func (p *Proxy) logSync(rec *Record) {
	s := p.sys
	tag := sinkTag(rec)

	sev, plain := plainLogSeverity(rec.event)
	if !plain {
		s.Sink().Log(rec.severity, tag, s.Describe(rec), nil)
		return
	}

	msg, cause, ok := plainLogShape(rec.args)
	if !ok {
		p.incorrectSignature(rec)
		return
	}
	s.Sink().Log(sev, tag, msg, cause)
}

func (p *Proxy) incorrectSignature(rec *Record) {
	p.sys.log(Error, fmt.Sprintf("incorrect log signature %s(%s) from %s, want (string) or (string, error)",
		rec.event, argTypes(rec.args), p.sourceType), nil)

	if p.badSignature == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.sys.log(Error, fmt.Sprintf("incorrect log signature handler of %s panicked: %v", p.sourceType, r), nil)
		}
	}()
	p.badSignature(rec)
}

// sinkTag is the tag records are logged under: the source type, followed
// by the tagging name in brackets when there is one.
func sinkTag(rec *Record) string {
	if rec.tag == "" {
		return rec.sourceType
	}
	return rec.sourceType + "[" + rec.tag + "]"
}
