package eventtrace

import (
	"fmt"
	"reflect"
	"slices"
)

// Listener is a consumer bound to one or more contracts. It receives only
// events declared by the contracts its Handlers table implements.
type Listener interface {
	Handlers() *Handlers
}

// HandlerFunc handles one event. args has exactly the event's arity.
type HandlerFunc func(args []any) error

type handlerKey struct {
	contract *Contract
	name     string
	arity    int
}

// Handlers is the dispatch table of a Listener: one HandlerFunc per event.
//
// A table is read once, when its listener is registered, and must not be
// modified afterwards.
//
//	h := eventtrace.NewHandlers(ConnContract)
//	eventtrace.On1(h, EvConnected, func(addr string) { ... })
//	eventtrace.On2(h, EvClosed, func(addr string, err error) { ... })
type Handlers struct {
	contracts []*Contract
	handlers  map[handlerKey]HandlerFunc
}

// NewHandlers creates a table implementing the given contracts.
// A contract with no handlers still counts as implemented: its events are
// reported as ErrHandlerNotFound.
func NewHandlers(contracts ...*Contract) *Handlers {
	h := &Handlers{handlers: make(map[handlerKey]HandlerFunc)}
	for _, c := range contracts {
		h.addContract(c)
	}
	return h
}

// Handlers returns h, so a bare table can be registered as a Listener.
func (h *Handlers) Handlers() *Handlers { return h }

// Handle sets the handler for ev. The contract of ev becomes implemented.
func (h *Handlers) Handle(ev *Event, fn HandlerFunc) *Handlers {
	if ev == nil || fn == nil {
		panic("eventtrace: Handle requires an event and a handler")
	}
	h.addContract(ev.contract)
	h.handlers[handlerKey{contract: ev.contract, name: ev.name, arity: len(ev.params)}] = fn
	return h
}

// Implements reports whether the table implements c.
func (h *Handlers) Implements(c *Contract) bool {
	return slices.Contains(h.contracts, c)
}

// Contracts returns the implemented contracts.
func (h *Handlers) Contracts() []*Contract {
	return slices.Clone(h.contracts)
}

// Missing returns the events of implemented contracts that have no handler.
func (h *Handlers) Missing() []*Event {
	var missing []*Event
	for _, c := range h.contracts {
		for _, ev := range c.Events() {
			if _, ok := h.handlers[handlerKey{contract: c, name: ev.name, arity: len(ev.params)}]; !ok {
				missing = append(missing, ev)
			}
		}
	}
	return missing
}

func (h *Handlers) lookup(c *Contract, name string, arity int) (HandlerFunc, bool) {
	fn, ok := h.handlers[handlerKey{contract: c, name: name, arity: arity}]
	return fn, ok
}

func (h *Handlers) addContract(c *Contract) {
	if c == nil {
		panic("eventtrace: nil contract")
	}
	if !slices.Contains(h.contracts, c) {
		h.contracts = append(h.contracts, c)
	}
}

func mustArity(ev *Event, n int) {
	if ev == nil {
		panic("eventtrace: nil event")
	}
	if len(ev.params) != n {
		panic(fmt.Sprintf("eventtrace: %s has arity %d, handler takes %d", ev, len(ev.params), n))
	}
}

// argAs converts args[i] to T. A nil argument yields the zero value.
func argAs[T any](ev *Event, args []any, i int) (T, error) {
	var zero T
	if args[i] == nil {
		return zero, nil
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("%s argument %d (%s): %w: got %T, want %s",
			ev, i, ev.params[i], ErrArgumentType, args[i], reflect.TypeFor[T]())
	}
	return v, nil
}

// On0 sets a handler for an event without arguments.
func On0(h *Handlers, ev *Event, fn func()) *Handlers {
	mustArity(ev, 0)
	return h.Handle(ev, func([]any) error {
		fn()
		return nil
	})
}

// On1 sets a typed handler for an event with one argument.
func On1[A any](h *Handlers, ev *Event, fn func(A)) *Handlers {
	mustArity(ev, 1)
	return h.Handle(ev, func(args []any) error {
		a, err := argAs[A](ev, args, 0)
		if err != nil {
			return err
		}
		fn(a)
		return nil
	})
}

// On2 sets a typed handler for an event with two arguments.
func On2[A, B any](h *Handlers, ev *Event, fn func(A, B)) *Handlers {
	mustArity(ev, 2)
	return h.Handle(ev, func(args []any) error {
		a, err := argAs[A](ev, args, 0)
		if err != nil {
			return err
		}
		b, err := argAs[B](ev, args, 1)
		if err != nil {
			return err
		}
		fn(a, b)
		return nil
	})
}

// On3 sets a typed handler for an event with three arguments.
func On3[A, B, C any](h *Handlers, ev *Event, fn func(A, B, C)) *Handlers {
	mustArity(ev, 3)
	return h.Handle(ev, func(args []any) error {
		a, err := argAs[A](ev, args, 0)
		if err != nil {
			return err
		}
		b, err := argAs[B](ev, args, 1)
		if err != nil {
			return err
		}
		c, err := argAs[C](ev, args, 2)
		if err != nil {
			return err
		}
		fn(a, b, c)
		return nil
	})
}

// On4 sets a typed handler for an event with four arguments.
func On4[A, B, C, D any](h *Handlers, ev *Event, fn func(A, B, C, D)) *Handlers {
	mustArity(ev, 4)
	return h.Handle(ev, func(args []any) error {
		a, err := argAs[A](ev, args, 0)
		if err != nil {
			return err
		}
		b, err := argAs[B](ev, args, 1)
		if err != nil {
			return err
		}
		c, err := argAs[C](ev, args, 2)
		if err != nil {
			return err
		}
		d, err := argAs[D](ev, args, 3)
		if err != nil {
			return err
		}
		fn(a, b, c, d)
		return nil
	})
}
