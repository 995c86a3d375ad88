/*
Package config loads eventtrace settings from YAML, JSON or TOML files.

# Overview

Config wraps a map[string]any and provides typed accessor methods that
return defaults for missing keys and type mismatches. SystemOptions and Sink
turn a loaded Config into eventtrace.System options.

# File Format

	enabled: true
	sync_logging: false
	queue_capacity: 5000
	lost_warning_interval: 30s
	log:
	  format: json      # console (default) or json
	  level: info       # verbose, debug, info, warn, error
	events:
	  net.Conn.connected:
	    severity: info
	    source_location: true
	  net.Conn.closed:
	    stack_trace: false

Event overrides are keyed by "<contract>.<event>" and apply to every arity
of the event, after the options given where the event is defined.

# Usage

	cfg, err := config.FromFile("eventtrace.toml")
	if err != nil {
	    return err
	}
	opts, err := config.SystemOptions(cfg)
	if err != nil {
	    return err
	}
	sink, err := config.Sink(cfg, os.Stdout)
	if err != nil {
	    return err
	}
	sys := eventtrace.New(append(opts, eventtrace.WithSink(sink))...)

# Type Coercion

Duration accepts strings ("30s", "1h30m") and numbers (seconds). Int
accepts YAML/TOML integers and JSON numbers without a fractional part.
*/
package config
