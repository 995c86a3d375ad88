package eventtrace

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace/logsink"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/registry"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/render"
)

// logTag is the tag of the facility's own log lines.
const logTag = "eventtrace"

// System is one tracing facility: its switches, contract catalog, consumer
// registry, queue and dispatch goroutine. Create one with New at startup,
// pass it to the code that creates proxies, and Close it at shutdown.
type System struct {
	enabled     atomic.Bool
	flushing    atomic.Int32 // Flush calls in progress
	syncLogging atomic.Bool
	sink        atomic.Pointer[sinkHolder]

	metrics   Metrics
	clock     func() time.Time
	renderers *render.Renderers
	onError   func(error)
	overrides map[string][]Option

	catalog  *registry.Registry[string, *Contract]
	resolved *registry.Registry[*Event, EventOptions]

	consumers consumerSet
	queue     *queue
	proc      processor
}

type sinkHolder struct {
	logsink.Sink
}

// SystemOption configures a System.
type SystemOption func(*systemConfig)

type systemConfig struct {
	queueCapacity int
	lostInterval  time.Duration
	sink          logsink.Sink
	metrics       Metrics
	syncLogging   bool
	enabled       bool
	renderers     *render.Renderers
	overrides     map[string][]Option
	onError       func(error)
	clock         func() time.Time
}

// WithQueueCapacity sets the queue capacity.
// Default: DefaultQueueCapacity
func WithQueueCapacity(n int) SystemOption {
	return func(c *systemConfig) {
		c.queueCapacity = n
	}
}

// WithLostWarningInterval sets the minimum time between lost-event
// summaries.
// Default: DefaultLostWarningInterval
func WithLostWarningInterval(d time.Duration) SystemOption {
	return func(c *systemConfig) {
		c.lostInterval = d
	}
}

// WithSink sets the initial sink.
// Default: a logsink.Console writing to stdout
func WithSink(sink logsink.Sink) SystemOption {
	return func(c *systemConfig) {
		c.sink = sink
	}
}

// WithMetrics sets the metrics recorder.
// Default: NoopMetrics
func WithMetrics(m Metrics) SystemOption {
	return func(c *systemConfig) {
		c.metrics = m
	}
}

// WithSyncLogging sets the initial logging mode. In synchronous mode each
// event is logged by the emitting goroutine; otherwise logging is left to
// consumers such as LogConsumer.
// Default: true
func WithSyncLogging(on bool) SystemOption {
	return func(c *systemConfig) {
		c.syncLogging = on
	}
}

// WithEnabled sets the initial emission switch.
// Default: true
func WithEnabled(on bool) SystemOption {
	return func(c *systemConfig) {
		c.enabled = on
	}
}

// WithRenderers sets the argument renderers used for log lines.
func WithRenderers(r *render.Renderers) SystemOption {
	return func(c *systemConfig) {
		c.renderers = r
	}
}

// WithEventOverride applies opts to every event whose Key is key
// ("<contract>.<event>"), after the options given at definition.
func WithEventOverride(key string, opts ...Option) SystemOption {
	return func(c *systemConfig) {
		if c.overrides == nil {
			c.overrides = make(map[string][]Option)
		}
		c.overrides[key] = append(c.overrides[key], opts...)
	}
}

// WithErrorHandler sets a function called with every *DispatchError, in
// addition to the ERROR log line.
func WithErrorHandler(fn func(error)) SystemOption {
	return func(c *systemConfig) {
		c.onError = fn
	}
}

// WithClock sets the time source for record timestamps and lost-event
// summaries.
func WithClock(now func() time.Time) SystemOption {
	return func(c *systemConfig) {
		c.clock = now
	}
}

// New creates a System. The dispatch goroutine starts with the first
// consumer registration.
func New(opts ...SystemOption) *System {
	cfg := systemConfig{
		queueCapacity: DefaultQueueCapacity,
		lostInterval:  DefaultLostWarningInterval,
		syncLogging:   true,
		enabled:       true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.queueCapacity <= 0 {
		cfg.queueCapacity = DefaultQueueCapacity
	}
	if cfg.lostInterval <= 0 {
		cfg.lostInterval = DefaultLostWarningInterval
	}
	if cfg.sink == nil {
		cfg.sink = logsink.NewConsole(logsink.ConsoleConfig{Output: os.Stdout})
	}
	if cfg.metrics == nil {
		cfg.metrics = NoopMetrics{}
	}
	if cfg.renderers == nil {
		cfg.renderers = render.New()
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}

	s := &System{
		metrics:   cfg.metrics,
		clock:     cfg.clock,
		renderers: cfg.renderers,
		onError:   cfg.onError,
		overrides: cfg.overrides,
		catalog:   registry.New[string, *Contract](),
		resolved:  registry.New[*Event, EventOptions](),
		queue:     newQueue(cfg.queueCapacity, cfg.lostInterval, cfg.clock()),
	}
	s.enabled.Store(cfg.enabled)
	s.syncLogging.Store(cfg.syncLogging)
	s.sink.Store(&sinkHolder{Sink: cfg.sink})
	s.catalog.Register(LogContract.name, LogContract)

	return s
}

// SetEnabled switches emission on or off. While off, Emit returns at once
// and the dispatch goroutine discards records it pulls.
func (s *System) SetEnabled(on bool) { s.enabled.Store(on) }

// active reports whether records are emitted and dispatched: emission is
// on and no Flush is in progress.
func (s *System) active() bool {
	return s.enabled.Load() && s.flushing.Load() == 0
}

// Enabled reports whether emission is on.
func (s *System) Enabled() bool { return s.enabled.Load() }

// SetSyncLogging switches between synchronous and asynchronous logging.
func (s *System) SetSyncLogging(on bool) { s.syncLogging.Store(on) }

// SyncLogging reports whether logging is synchronous.
func (s *System) SyncLogging() bool { return s.syncLogging.Load() }

// SetSink replaces the sink. A nil sink discards.
func (s *System) SetSink(sink logsink.Sink) {
	if sink == nil {
		sink = logsink.Discard
	}
	s.sink.Store(&sinkHolder{Sink: sink})
}

// Sink returns the current sink.
func (s *System) Sink() logsink.Sink { return s.sink.Load().Sink }

// Renderers returns the argument renderers. Register and reset rendering
// functions on it with the render package.
func (s *System) Renderers() *render.Renderers { return s.renderers }

// Metrics returns the metrics recorder.
func (s *System) Metrics() Metrics { return s.metrics }

// Declare adds contracts to the catalog listeners are resolved against.
// Proxies declare their contract themselves. Declaring a different contract
// under a name already in use is an error.
func (s *System) Declare(contracts ...*Contract) error {
	var errs []error
	for _, c := range contracts {
		if c == nil {
			continue
		}
		if actual, loaded := s.catalog.LoadOrStore(c.name, c); loaded && actual != c {
			errs = append(errs, fmt.Errorf("contract %q already declared by another definition", c.name))
		}
	}
	return errors.Join(errs...)
}

// Contract returns the declared contract with the given name.
func (s *System) Contract(name string) (*Contract, bool) {
	return s.catalog.Get(name)
}

// Contracts returns the declared contracts sorted by name.
func (s *System) Contracts() []*Contract {
	return slices.SortedFunc(maps.Values(s.catalog.Snapshot()), func(a, b *Contract) int {
		return cmp.Compare(a.name, b.name)
	})
}

// EventOptions returns the options of ev after configured overrides.
// They are resolved once per event.
func (s *System) EventOptions(ev *Event) EventOptions {
	return s.resolved.GetOrCreate(ev, func() EventOptions {
		opts := ev.opts
		if over, ok := s.overrides[ev.Key()]; ok {
			opts = opts.apply(over)
		}
		return opts
	})
}

// recordOptions returns the options of the event rec was emitted for, or
// the defaults at the record's severity for unknown events.
func (s *System) recordOptions(rec *Record) EventOptions {
	if c, ok := s.catalog.Get(rec.contract); ok {
		if ev, ok := c.Lookup(rec.event, len(rec.args)); ok {
			return s.EventOptions(ev)
		}
	}
	opts := DefaultEventOptions
	opts.Severity = rec.severity
	return opts
}

func (s *System) log(sev Severity, msg string, cause error) {
	s.Sink().Log(sev, logTag, msg, cause)
}
