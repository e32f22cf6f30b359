package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger defines the minimal logging interface for DiscoveryMesh.
// Args are alternating key/value pairs, slog-style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// ZerologAdapter wraps a zerolog.Logger to implement the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog.Logger.
func NewZerologAdapter(l zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: l}
}

// New builds a ZerologAdapter writing to w at the given level. Level names
// follow zerolog ("debug", "info", "warn", "error"); unknown names fall
// back to info.
func New(w io.Writer, level string) *ZerologAdapter {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &ZerologAdapter{logger: l}
}

// Logger exposes the underlying zerolog.Logger for callers that need
// zerolog-native features (sub-loggers, sampling).
func (z *ZerologAdapter) Logger() zerolog.Logger { return z.logger }

// Debug logs a debug message with key/value fields.
func (z *ZerologAdapter) Debug(msg string, args ...any) {
	applyFields(z.logger.Debug(), args).Msg(msg)
}

// Info logs an info message with key/value fields.
func (z *ZerologAdapter) Info(msg string, args ...any) {
	applyFields(z.logger.Info(), args).Msg(msg)
}

// Warn logs a warning message with key/value fields.
func (z *ZerologAdapter) Warn(msg string, args ...any) {
	applyFields(z.logger.Warn(), args).Msg(msg)
}

// Error logs an error message with key/value fields.
func (z *ZerologAdapter) Error(msg string, args ...any) {
	applyFields(z.logger.Error(), args).Msg(msg)
}

// applyFields folds alternating key/value args into the event. A trailing
// key without a value is logged under "arg".
func applyFields(ev *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	if len(args)%2 == 1 {
		ev = ev.Interface("arg", args[len(args)-1])
	}
	return ev
}
