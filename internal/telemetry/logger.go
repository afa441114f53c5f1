// Package telemetry wires up the structured logger every CLI command and
// the execution driver log through: a zerolog.Logger writing to stderr,
// with a request id attached to every request-scoped line, grounded on
// tomtom215-cartographus's use of zerolog for service logs.
package telemetry

import (
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger writing human-readable console output to w
// (stderr for normal runs). level follows zerolog's string levels
// ("debug", "info", "warn", "error"); an unrecognized level falls back to
// "info" rather than failing the command.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// WithRequestID returns a child logger carrying a fresh request id field,
// so every line logged during one export/join invocation can be correlated
// grounded on cartographus's GenerateRequestID + request-scoped logger
// pattern.
func WithRequestID(logger zerolog.Logger) zerolog.Logger {
	return logger.With().Str("request_id", uuid.NewString()).Logger()
}
