package eventtrace

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Consumer receives every record, regardless of its contract.
type Consumer interface {
	Consume(rec *Record)
}

// ConsumerFunc adapts a function to Consumer.
//
// Functions are not comparable, so each registration of a ConsumerFunc is
// distinct; remove it with RemoveRegistration.
type ConsumerFunc func(rec *Record)

// Consume implements Consumer.
func (f ConsumerFunc) Consume(rec *Record) { f(rec) }

// Registration describes one registered consumer or listener.
type Registration struct {
	ID       uuid.UUID
	Target   any    // The Consumer or Listener
	Filter   string // Context filter pattern, if Filtered
	Filtered bool
	Specific bool // Target was registered as a Listener
}

// RegisterOption configures AddConsumer, AddListener and their Remove
// counterparts.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	filter    string
	hasFilter bool
}

// WithFilter restricts delivery to records whose context label fully
// matches the RE2 pattern. When removing, it selects the registration made
// with the same pattern.
func WithFilter(pattern string) RegisterOption {
	return func(c *registerConfig) {
		c.filter = pattern
		c.hasFilter = true
	}
}

func newRegisterConfig(opts []RegisterOption) registerConfig {
	var cfg registerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

type registration struct {
	id        uuid.UUID
	key       any
	target    any
	consumer  Consumer
	handlers  *Handlers
	filter    string
	hasFilter bool
	re        *regexp.Regexp
}

func (r *registration) matches(label string) bool {
	return !r.hasFilter || r.re.MatchString(label)
}

func (r *registration) public() Registration {
	return Registration{
		ID:       r.id,
		Target:   r.target,
		Filter:   r.filter,
		Filtered: r.hasFilter,
		Specific: r.handlers != nil,
	}
}

// unique is the identity of a value that cannot be compared.
type unique struct{ _ byte }

// identityKey returns the key consumers are deduplicated by: the value
// itself when it is comparable (pointer identity for pointers), otherwise
// a key of its own.
func identityKey(v any) any {
	if reflect.ValueOf(v).Comparable() {
		return v
	}
	return &unique{}
}

// consumerSet is the ordered registration list. Writers replace the slice,
// so a reader's snapshot never changes under it.
type consumerSet struct {
	mu   sync.RWMutex
	regs []*registration
}

func (cs *consumerSet) snapshot() []*registration {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.regs
}

// add appends reg unless an equivalent registration exists, which is
// returned instead.
func (cs *consumerSet) add(reg *registration) *registration {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, existing := range cs.regs {
		if existing.key == reg.key &&
			(existing.handlers != nil) == (reg.handlers != nil) &&
			existing.hasFilter == reg.hasFilter &&
			existing.filter == reg.filter {
			return existing
		}
	}
	next := make([]*registration, len(cs.regs), len(cs.regs)+1)
	copy(next, cs.regs)
	cs.regs = append(next, reg)
	return reg
}

func (cs *consumerSet) removeFunc(del func(*registration) bool) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(cs.regs), del)
	removed := len(cs.regs) - len(next)
	if removed > 0 {
		cs.regs = next
	}
	return removed
}

func (cs *consumerSet) clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.regs = nil
}

// AddConsumer registers a generic consumer and starts the dispatch
// goroutine if it is not running.
func (s *System) AddConsumer(c Consumer, opts ...RegisterOption) (Registration, error) {
	if c == nil {
		return Registration{}, ErrNilConsumer
	}
	return s.register(c, c, nil, opts)
}

// AddListener registers a specific consumer. Its Handlers table is read
// once, here.
func (s *System) AddListener(l Listener, opts ...RegisterOption) (Registration, error) {
	if l == nil {
		return Registration{}, ErrNilConsumer
	}
	h := l.Handlers()
	if h == nil {
		return Registration{}, fmt.Errorf("%T: %w: no handlers", l, ErrNilConsumer)
	}
	return s.register(l, nil, h, opts)
}

func (s *System) register(target any, c Consumer, h *Handlers, opts []RegisterOption) (Registration, error) {
	cfg := newRegisterConfig(opts)

	reg := &registration{
		id:        uuid.New(),
		key:       identityKey(target),
		target:    target,
		consumer:  c,
		handlers:  h,
		filter:    cfg.filter,
		hasFilter: cfg.hasFilter,
	}
	if cfg.hasFilter {
		re, err := regexp.Compile(`^(?:` + cfg.filter + `)$`)
		if err != nil {
			return Registration{}, fmt.Errorf("%w %q: %w", ErrInvalidFilter, cfg.filter, err)
		}
		reg.re = re
	}

	reg = s.consumers.add(reg)
	s.ensureRunning()
	return reg.public(), nil
}

// RemoveConsumer removes the registrations of c. With WithFilter only the
// registration made with that pattern is removed. It returns the number of
// registrations removed.
func (s *System) RemoveConsumer(c Consumer, opts ...RegisterOption) int {
	return s.remove(c, false, opts)
}

// RemoveListener removes the registrations of l, like RemoveConsumer.
func (s *System) RemoveListener(l Listener, opts ...RegisterOption) int {
	return s.remove(l, true, opts)
}

func (s *System) remove(target any, specific bool, opts []RegisterOption) int {
	if target == nil || !reflect.ValueOf(target).Comparable() {
		return 0
	}
	cfg := newRegisterConfig(opts)
	return s.consumers.removeFunc(func(r *registration) bool {
		if r.key != target || (r.handlers != nil) != specific {
			return false
		}
		return !cfg.hasFilter || (r.hasFilter && r.filter == cfg.filter)
	})
}

// RemoveRegistration removes the registration with the given ID.
func (s *System) RemoveRegistration(id uuid.UUID) bool {
	return s.consumers.removeFunc(func(r *registration) bool {
		return r.id == id
	}) > 0
}

// ClearConsumers removes every registration. The dispatch goroutine keeps
// running and discards records until a consumer is added.
func (s *System) ClearConsumers() {
	s.consumers.clear()
}

// Registrations lists the registrations in registration order.
func (s *System) Registrations() []Registration {
	regs := s.consumers.snapshot()
	out := make([]Registration, 0, len(regs))
	for _, r := range regs {
		out = append(out, r.public())
	}
	return out
}

// RegistrationsMatching lists the registrations that would receive a record
// with the given context label.
func (s *System) RegistrationsMatching(label string) []Registration {
	var out []Registration
	for _, r := range s.consumers.snapshot() {
		if r.matches(label) {
			out = append(out, r.public())
		}
	}
	return out
}

// dispatch delivers rec to every matching consumer once, in registration
// order. Failures are reported and never stop the pass.
func (s *System) dispatch(ctx context.Context, rec *Record) {
	regs := s.consumers.snapshot()
	if len(regs) == 0 {
		return
	}

	seen := make(map[any]struct{}, len(regs))
	for _, reg := range regs {
		if !reg.matches(rec.context) {
			continue
		}
		if _, dup := seen[reg.key]; dup {
			continue
		}
		seen[reg.key] = struct{}{}

		if err := s.deliver(reg, rec); err != nil {
			s.reportDispatch(ctx, reg, rec, err)
		}
	}
}

func (s *System) deliver(reg *registration, rec *Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()

	if reg.consumer != nil {
		reg.consumer.Consume(rec)
		return nil
	}

	c, ok := s.catalog.Get(rec.contract)
	if !ok {
		return ErrContractNotFound
	}
	if !reg.handlers.Implements(c) {
		return nil
	}
	fn, ok := reg.handlers.lookup(c, rec.event, len(rec.args))
	if !ok {
		return ErrHandlerNotFound
	}
	return fn(rec.Args())
}

func (s *System) reportDispatch(ctx context.Context, reg *registration, rec *Record, err error) {
	derr := &DispatchError{
		Consumer: typeName(reg.target),
		Contract: rec.contract,
		Event:    rec.event,
		ArgCount: len(rec.args),
		Err:      err,
	}
	s.log(Error, derr.Error(), nil)
	s.metrics.DeliveryFailed(ctx, rec.contract, rec.event)
	if s.onError != nil {
		s.onError(derr)
	}
}

// typeName returns the name of v's type without a leading pointer.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
