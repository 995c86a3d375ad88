package logsink

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ConsoleConfig configures a Console sink.
type ConsoleConfig struct {
	// Output is where lines are written.
	// Default: os.Stdout
	Output io.Writer

	// JSONOutput writes one JSON object per line instead of the
	// human-readable console format.
	JSONOutput bool

	// MinSeverity drops lines below this severity.
	// Default: Verbose (everything)
	MinSeverity Severity
}

// Console writes timestamped lines through zerolog.
// It filters by severity itself, so zerolog's global level does not apply.
type Console struct {
	logger zerolog.Logger
	min    Severity
}

// NewConsole creates a console sink.
func NewConsole(cfg ConsoleConfig) *Console {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var logger zerolog.Logger
	if cfg.JSONOutput {
		logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}).With().Timestamp().Logger()
	}

	return &Console{logger: logger, min: cfg.MinSeverity}
}

// Log implements Sink.
func (c *Console) Log(sev Severity, tag, msg string, cause error) {
	if sev < c.min {
		return
	}
	evt := c.logger.Log().Str(zerolog.LevelFieldName, zerologLevel(sev).String())
	if tag != "" {
		evt = evt.Str("tag", tag)
	}
	if cause != nil {
		evt = evt.Err(cause)
	}
	evt.Msg(msg)
}

func zerologLevel(sev Severity) zerolog.Level {
	switch sev {
	case Verbose:
		return zerolog.TraceLevel
	case Debug:
		return zerolog.DebugLevel
	case Info:
		return zerolog.InfoLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.DebugLevel
	}
}
