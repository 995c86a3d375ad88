package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace/config"
)

// TestString verifies string extraction with defaults.
func TestString(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal string
		want       string
	}{
		{"key exists", map[string]any{"format": "json"}, "format", "console", "json"},
		{"key missing", map[string]any{"other": "value"}, "format", "console", "console"},
		{"empty string", map[string]any{"format": ""}, "format", "console", ""},
		{"wrong type", map[string]any{"format": 1}, "format", "console", "console"},
		{"nil map", nil, "format", "console", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String(tt.key, tt.defaultVal))
		})
	}
}

// TestDuration verifies duration extraction with various input types.
func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"string", "30s", 30 * time.Second},
		{"complex string", "1h30m", 90 * time.Minute},
		{"int seconds", 5, 5 * time.Second},
		{"int64 seconds", int64(7), 7 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"invalid string", "soon", time.Minute},
		{"wrong type", true, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"interval": tt.val})
			assert.Equal(t, tt.want, cfg.Duration("interval", time.Minute))
		})
	}
}

func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"on": true, "off": false, "str": "true"})
	assert.True(t, cfg.Bool("on", false))
	assert.False(t, cfg.Bool("off", true))
	assert.True(t, cfg.Bool("str", true), "strings are not coerced")
	assert.False(t, cfg.Bool("missing", false))
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"int", 42, 42},
		{"int64", int64(42), 42},
		{"whole float", 42.0, 42},
		{"fractional float", 42.5, -1},
		{"string", "42", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"n": tt.val})
			assert.Equal(t, tt.want, cfg.Int("n", -1))
		})
	}
}

func TestSub(t *testing.T) {
	cfg := config.New(map[string]any{
		"log":   map[string]any{"level": "info"},
		"flat":  "value",
		"empty": nil,
	})

	assert.Equal(t, "info", cfg.Sub("log").String("level", ""))
	assert.Empty(t, cfg.Sub("flat").Keys())
	assert.Empty(t, cfg.Sub("missing").Keys())
	assert.True(t, cfg.Has("empty"))
	assert.False(t, cfg.Has("missing"))
}

func TestKeys(t *testing.T) {
	cfg := config.New(map[string]any{"b": 1, "c": 2, "a": 3})
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Keys())
	assert.Len(t, cfg.Raw(), 3)
}
