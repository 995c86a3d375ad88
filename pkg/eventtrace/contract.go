package eventtrace

import (
	"fmt"
	"slices"
	"sync"
)

// reservedEventNames are identity methods of the proxied type. Emitting an
// event with one of these names is a no-op.
var reservedEventNames = map[string]bool{
	"String":   true,
	"GoString": true,
	"Equal":    true,
	"Hash":     true,
}

// Contract is an event-listener contract: a named, closed set of events.
//
// Contracts are defined once, usually as package-level variables, together
// with their events:
//
//	var (
//	    ConnContract = eventtrace.NewContract("net.Conn", eventtrace.WithSeverity(eventtrace.Info))
//	    EvConnected  = ConnContract.Event("connected", []string{"addr"})
//	    EvClosed     = ConnContract.Event("closed", []string{"addr", "err"}, eventtrace.WithSeverity(eventtrace.Warn))
//	)
type Contract struct {
	name string
	opts EventOptions

	mu     sync.RWMutex
	events map[eventKey]*Event
	order  []*Event
}

type eventKey struct {
	name  string
	arity int
}

// NewContract creates a contract. opts apply to every event of the contract
// and may be overridden per event.
func NewContract(name string, opts ...Option) *Contract {
	if name == "" {
		panic("eventtrace: contract name is required")
	}
	return &Contract{
		name:   name,
		opts:   DefaultEventOptions.apply(opts),
		events: make(map[eventKey]*Event),
	}
}

// Name returns the contract name.
func (c *Contract) Name() string { return c.name }

// String returns the contract name.
func (c *Contract) String() string { return c.name }

// Options returns the contract-level options.
func (c *Contract) Options() EventOptions { return c.opts }

// Event defines an event of the contract. params names the arguments, in
// order; its length is the event's arity. Events are identified by name and
// arity, so overloads with different arities are allowed.
//
// Event panics if the same name and arity is defined twice.
func (c *Contract) Event(name string, params []string, opts ...Option) *Event {
	if name == "" {
		panic(fmt.Sprintf("eventtrace: event name is required on %s", c.name))
	}

	ev := &Event{
		contract: c,
		name:     name,
		params:   slices.Clone(params),
		opts:     c.opts.apply(opts),
		reserved: reservedEventNames[name],
	}
	if ev.params == nil {
		ev.params = []string{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := eventKey{name: name, arity: len(params)}
	if _, exists := c.events[key]; exists {
		panic(fmt.Sprintf("eventtrace: event %s/%d already defined on %s", name, len(params), c.name))
	}
	c.events[key] = ev
	c.order = append(c.order, ev)
	return ev
}

// Lookup returns the event with the given name and arity.
func (c *Contract) Lookup(name string, arity int) (*Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev, ok := c.events[eventKey{name: name, arity: arity}]
	return ev, ok
}

// Events returns the events in definition order.
func (c *Contract) Events() []*Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Event is one event variant of a Contract.
type Event struct {
	contract *Contract
	name     string
	params   []string
	opts     EventOptions
	reserved bool
}

// Contract returns the contract that declares the event.
func (e *Event) Contract() *Contract { return e.contract }

// Name returns the event name.
func (e *Event) Name() string { return e.name }

// Arity returns the number of arguments.
func (e *Event) Arity() int { return len(e.params) }

// Params returns the argument names.
func (e *Event) Params() []string { return slices.Clone(e.params) }

// Options returns the options resolved at definition time.
func (e *Event) Options() EventOptions { return e.opts }

// Key returns "<contract>.<event>", the key used for configured overrides.
func (e *Event) Key() string { return e.contract.name + "." + e.name }

// String returns "<contract>.<event>/<arity>".
func (e *Event) String() string {
	return fmt.Sprintf("%s.%s/%d", e.contract.name, e.name, len(e.params))
}
