// Package diag carries ambient diagnostic key/value pairs alongside a
// context.Context.
//
// Values are immutable: every modification returns a derived context holding
// a new Map, so a Map obtained from Snapshot never changes afterwards and can
// be attached to trace records without copying. Child goroutines see whatever
// map was in the context they were handed, which replaces implicit
// thread-local inheritance with explicit propagation.
//
//	ctx = diag.With(ctx, "request_id", id)
//	ctx = diag.With(ctx, "user", name)
//	tracer.Emit(ctx, evStarted, job)   // record carries {request_id, user}
package diag

import (
	"context"
	"maps"
	"slices"
	"strings"
)

type contextKey struct{}

// Map is an immutable set of diagnostic key/value pairs.
// The zero Map is empty.
type Map struct {
	m map[string]string
}

// NewMap copies entries into a Map.
func NewMap(entries map[string]string) Map {
	if len(entries) == 0 {
		return Map{}
	}
	return Map{m: maps.Clone(entries)}
}

// Get returns the value for key.
func (m Map) Get(key string) (string, bool) {
	v, ok := m.m[key]
	return v, ok
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m.m) }

// Keys returns the keys in sorted order.
func (m Map) Keys() []string {
	return slices.Sorted(maps.Keys(m.m))
}

// ToMap returns a mutable copy of the entries.
func (m Map) ToMap() map[string]string {
	if m.m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.m)
}

// Equal reports whether both maps hold the same entries.
func (m Map) Equal(other Map) bool {
	return maps.Equal(m.m, other.m)
}

// String renders the entries as {k1=v1, k2=v2} in key order.
func (m Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m.m[k])
	}
	b.WriteByte('}')
	return b.String()
}

func (m Map) with(key, value string) Map {
	next := make(map[string]string, len(m.m)+1)
	maps.Copy(next, m.m)
	next[key] = value
	return Map{m: next}
}

func (m Map) without(key string) Map {
	if _, ok := m.m[key]; !ok {
		return m
	}
	next := maps.Clone(m.m)
	delete(next, key)
	return Map{m: next}
}

// From returns the diagnostic map carried by ctx (empty if none).
func From(ctx context.Context) Map {
	if ctx == nil {
		return Map{}
	}
	if m, ok := ctx.Value(contextKey{}).(Map); ok {
		return m
	}
	return Map{}
}

// With returns a context whose map has key set to value.
func With(ctx context.Context, key, value string) context.Context {
	return context.WithValue(ctx, contextKey{}, From(ctx).with(key, value))
}

// WithMap returns a context whose map also holds every entry of m.
func WithMap(ctx context.Context, m Map) context.Context {
	cur := From(ctx)
	next := make(map[string]string, cur.Len()+m.Len())
	maps.Copy(next, cur.m)
	maps.Copy(next, m.m)
	return context.WithValue(ctx, contextKey{}, Map{m: next})
}

// Without returns a context whose map no longer holds key.
func Without(ctx context.Context, key string) context.Context {
	cur := From(ctx)
	if _, ok := cur.Get(key); !ok {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, cur.without(key))
}

// Cleared returns a context with an empty map.
func Cleared(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, Map{})
}

// Get returns the value for key in the map carried by ctx.
func Get(ctx context.Context, key string) (string, bool) {
	return From(ctx).Get(key)
}

// Snapshot returns the map carried by ctx, or false if it is empty.
func Snapshot(ctx context.Context) (Map, bool) {
	m := From(ctx)
	if m.Len() == 0 {
		return Map{}, false
	}
	return m, true
}
