package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogEventAdapter adapts zerolog events to the LogEvent interface.
type LogEventAdapter struct {
	event    *zerolog.Event
	redactor *HeaderRedactor
}

// Msg logs the message
func (lea *LogEventAdapter) Msg(msg string) {
	lea.event.Msg(msg)
}

// Msgf logs a formatted message
func (lea *LogEventAdapter) Msgf(format string, args ...any) {
	lea.event.Msgf(format, args...)
}

// Err adds an error to the log event
func (lea *LogEventAdapter) Err(err error) LogEvent {
	return &LogEventAdapter{event: lea.event.Err(err), redactor: lea.redactor}
}

// Str adds a string field to the log event
func (lea *LogEventAdapter) Str(key, value string) LogEvent {
	if lea.redactor != nil {
		value = lea.redactor.RedactValue(key, value)
	}
	return &LogEventAdapter{event: lea.event.Str(key, value), redactor: lea.redactor}
}

// Int adds an integer field to the log event
func (lea *LogEventAdapter) Int(key string, value int) LogEvent {
	return &LogEventAdapter{event: lea.event.Int(key, value), redactor: lea.redactor}
}

// Bool adds a boolean field to the log event
func (lea *LogEventAdapter) Bool(key string, value bool) LogEvent {
	return &LogEventAdapter{event: lea.event.Bool(key, value), redactor: lea.redactor}
}

// Dur adds a duration field to the log event
func (lea *LogEventAdapter) Dur(key string, d time.Duration) LogEvent {
	return &LogEventAdapter{event: lea.event.Dur(key, d), redactor: lea.redactor}
}

// Interface adds an arbitrary field to the log event. Header maps are
// redacted key-by-key before serialization.
func (lea *LogEventAdapter) Interface(key string, i any) LogEvent {
	if lea.redactor != nil {
		if m, ok := i.(map[string]string); ok {
			i = lea.redactor.RedactHeaders(m)
		}
	}
	return &LogEventAdapter{event: lea.event.Interface(key, i), redactor: lea.redactor}
}
