package config

import (
	"maps"
	"math"
	"slices"
	"time"
)

// Config is one table of settings. Accessors never fail: a missing key or
// a value of the wrong type yields the caller's default, and validation is
// left to SystemOptions and Sink.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map gives an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = map[string]any{}
	}
	return Config{data: data}
}

func lookup[T any](c Config, key string) (T, bool) {
	v, ok := c.data[key].(T)
	return v, ok
}

// String returns the string at key, or def.
func (c Config) String(key, def string) string {
	if s, ok := lookup[string](c, key); ok {
		return s
	}
	return def
}

// Bool returns the boolean at key, or def. Strings are not coerced.
func (c Config) Bool(key string, def bool) bool {
	if b, ok := lookup[bool](c, key); ok {
		return b
	}
	return def
}

// Int returns the integer at key, or def. YAML decodes integers as int,
// TOML as int64 and JSON as float64; a float is accepted when it is whole.
func (c Config) Int(key string, def int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	}
	return def
}

// Duration returns the duration at key, or def. A string is parsed with
// time.ParseDuration and a number counts seconds.
func (c Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return def
}

// Sub returns the nested table at key. Anything else gives an empty Config.
func (c Config) Sub(key string) Config {
	m, _ := lookup[map[string]any](c, key)
	return New(m)
}

// Has reports whether key is set, even to null.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Keys returns the keys of the table, sorted.
func (c Config) Keys() []string {
	return slices.Sorted(maps.Keys(c.data))
}

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}
