package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// decoders maps a file extension to the parser for that format.
var decoders = map[string]func([]byte) (Config, error){
	".yaml": FromYAML,
	".yml":  FromYAML,
	".json": FromJSON,
	".toml": FromTOML,
}

// FromFile reads path and parses it according to its extension, ignoring
// case: .yaml, .yml, .json or .toml.
func FromFile(path string) (Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return decode(data)
}

// FromYAML parses a YAML document.
func FromYAML(data []byte) (Config, error) {
	return decode(data, "yaml", yaml.Unmarshal)
}

// FromJSON parses a JSON object.
func FromJSON(data []byte) (Config, error) {
	return decode(data, "json", json.Unmarshal)
}

// FromTOML parses a TOML document.
func FromTOML(data []byte) (Config, error) {
	return decode(data, "toml", toml.Unmarshal)
}

func decode(data []byte, format string, unmarshal func([]byte, any) error) (Config, error) {
	var m map[string]any
	if err := unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", format, err)
	}
	return New(m), nil
}
