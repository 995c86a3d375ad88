package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace"
	"github.com/randalmurphal/eventtrace/pkg/eventtrace/logsink"
)

// Configuration keys.
const (
	KeyEnabled             = "enabled"
	KeySyncLogging         = "sync_logging"
	KeyQueueCapacity       = "queue_capacity"
	KeyLostWarningInterval = "lost_warning_interval"
	KeyLog                 = "log"
	KeyEvents              = "events"
)

// Event override keys, under events."<contract>.<event>".
const (
	KeySeverity       = "severity"
	KeyStackTrace     = "stack_trace"
	KeyTaggingName    = "tagging_name"
	KeySourceLocation = "source_location"
	KeyInterfaceName  = "interface_name"
)

// SystemOptions converts cfg to System options. Only keys present in cfg
// produce options, so System defaults apply to the rest.
func SystemOptions(cfg Config) ([]eventtrace.SystemOption, error) {
	var opts []eventtrace.SystemOption

	if on, ok, err := boolSetting(cfg, KeyEnabled); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, eventtrace.WithEnabled(on))
	}
	if on, ok, err := boolSetting(cfg, KeySyncLogging); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, eventtrace.WithSyncLogging(on))
	}
	if cfg.Has(KeyQueueCapacity) {
		n := cfg.Int(KeyQueueCapacity, 0)
		if n <= 0 {
			return nil, fmt.Errorf("%s: must be a positive integer", KeyQueueCapacity)
		}
		opts = append(opts, eventtrace.WithQueueCapacity(n))
	}
	if cfg.Has(KeyLostWarningInterval) {
		d := cfg.Duration(KeyLostWarningInterval, 0)
		if d <= 0 {
			return nil, fmt.Errorf("%s: must be a positive duration", KeyLostWarningInterval)
		}
		opts = append(opts, eventtrace.WithLostWarningInterval(d))
	}

	events := cfg.Sub(KeyEvents)
	var errs []error
	for _, key := range events.Keys() {
		eventOpts, err := EventOptions(events.Sub(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", KeyEvents, key, err))
			continue
		}
		opts = append(opts, eventtrace.WithEventOverride(key, eventOpts...))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return opts, nil
}

// eventFlags maps the boolean override keys to their options.
var eventFlags = []struct {
	key string
	opt func(bool) eventtrace.Option
}{
	{KeyStackTrace, eventtrace.WithStackTrace},
	{KeyTaggingName, eventtrace.WithTaggingName},
	{KeySourceLocation, eventtrace.WithSourceLocation},
	{KeyInterfaceName, eventtrace.WithInterfaceName},
}

// EventOptions converts one event override table to event options.
func EventOptions(cfg Config) ([]eventtrace.Option, error) {
	var opts []eventtrace.Option
	if cfg.Has(KeySeverity) {
		name, ok := lookup[string](cfg, KeySeverity)
		if !ok {
			return nil, fmt.Errorf("%s: must be a string, got %T", KeySeverity, cfg.data[KeySeverity])
		}
		sev, err := logsink.ParseSeverity(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, eventtrace.WithSeverity(sev))
	}
	for _, f := range eventFlags {
		on, ok, err := boolSetting(cfg, f.key)
		if err != nil {
			return nil, err
		}
		if ok {
			opts = append(opts, f.opt(on))
		}
	}
	return opts, nil
}

// boolSetting returns the boolean at key and whether it is set. A value of
// another type is an error.
func boolSetting(cfg Config, key string) (value, ok bool, err error) {
	if !cfg.Has(key) {
		return false, false, nil
	}
	value, ok = lookup[bool](cfg, key)
	if !ok {
		return false, false, fmt.Errorf("%s: must be a boolean, got %T", key, cfg.data[key])
	}
	return value, true, nil
}

// Sink builds the sink described by the log table: format "console"
// (default) or "json", and a minimum level (default verbose).
func Sink(cfg Config, w io.Writer) (logsink.Sink, error) {
	log := cfg.Sub(KeyLog)

	consoleCfg := logsink.ConsoleConfig{Output: w}
	switch format := log.String("format", "console"); format {
	case "console":
	case "json":
		consoleCfg.JSONOutput = true
	default:
		return nil, fmt.Errorf("%s.format: unknown format %q", KeyLog, format)
	}

	if log.Has("level") {
		sev, err := logsink.ParseSeverity(log.String("level", ""))
		if err != nil {
			return nil, fmt.Errorf("%s.level: %w", KeyLog, err)
		}
		consoleCfg.MinSeverity = sev
	}
	return logsink.NewConsole(consoleCfg), nil
}
