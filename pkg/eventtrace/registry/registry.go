// Package registry provides a generic keyed table safe for concurrent use.
//
// eventtrace keeps its read-mostly lookup tables in it: the contract
// catalog, the resolved per-event options and the custom argument
// renderers. Reads vastly outnumber writes, since every emitted event
// consults at least one table.
//
//	renderers := registry.New[reflect.Type, func(any) string]()
//	renderers.Register(reflect.TypeFor[net.IP](), renderIP)
//
//	opts := resolved.GetOrCreate(ev, func() EventOptions { return resolve(ev) })
package registry

import (
	"maps"
	"sync"
)

// Registry maps keys to values behind a sync.RWMutex.
type Registry[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New creates an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{m: make(map[K]V)}
}

// Register sets the value for key, replacing any previous one.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	r.m[key] = value
	r.mu.Unlock()
}

// Get returns the value for key.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[key]
	return v, ok
}

// Delete removes key and reports whether it was present.
func (r *Registry[K, V]) Delete(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[key]
	delete(r.m, key)
	return ok
}

// Clear empties the registry.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	clear(r.m)
	r.mu.Unlock()
}

// Len returns the number of entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

// Snapshot returns a copy of the entries.
func (r *Registry[K, V]) Snapshot() map[K]V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.m)
}

// GetOrCreate returns the value for key, computing and storing it with
// create when absent. create runs at most once per key.
func (r *Registry[K, V]) GetOrCreate(key K, create func() V) V {
	if v, ok := r.Get(key); ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.m[key]; ok {
		return v
	}
	v := create()
	r.m[key] = v
	return v
}

// LoadOrStore stores value under key unless key is present. It returns the
// value now stored and whether it was already there.
func (r *Registry[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.m[key]; ok {
		return v, true
	}
	r.m[key] = value
	return value, false
}
