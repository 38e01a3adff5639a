package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger to implement the Logger interface.
// Header values passed through Interface with a credential-bearing key
// are masked before they reach the output.
type ZeroLogger struct {
	zlog     *zerolog.Logger
	redactor *HeaderRedactor
}

// Ensure ZeroLogger implements the interface
var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger writing to stdout at the given level.
// If pretty is true, output is formatted for human readability.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithOutput(level, pretty, os.Stdout)
}

// NewWithOutput creates a ZeroLogger writing to the given writer.
// Useful for capturing output in tests.
func NewWithOutput(level string, pretty bool, out io.Writer) *ZeroLogger {
	var l zerolog.Logger

	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(out).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, redactor: NewHeaderRedactor(nil)}
}

// WithFields returns a logger with additional fields attached to all log entries.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, redactor: l.redactor}
}

// Info creates an info-level log event.
func (l *ZeroLogger) Info() LogEvent {
	return &LogEventAdapter{event: l.zlog.Info(), redactor: l.redactor}
}

// Error creates an error-level log event.
func (l *ZeroLogger) Error() LogEvent {
	return &LogEventAdapter{event: l.zlog.Error(), redactor: l.redactor}
}

// Debug creates a debug-level log event.
func (l *ZeroLogger) Debug() LogEvent {
	return &LogEventAdapter{event: l.zlog.Debug(), redactor: l.redactor}
}

// Warn creates a warn-level log event.
func (l *ZeroLogger) Warn() LogEvent {
	return &LogEventAdapter{event: l.zlog.Warn(), redactor: l.redactor}
}
