// Package wslog wires zerolog the way the rest of this module's ambient
// stack expects: a no-op logger by default, a console-pretty logger for
// local development, and a thin helper for hosts that already have their
// own zerolog.Logger and just want to pass it to wsengine.WithLogger.
package wslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewNop returns a logger that discards everything. Every wsengine.Context
// built without an explicit WithLogger option uses this, so logging costs
// nothing until a host opts in.
func NewNop() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// NewConsole returns a human-readable, colorized logger suitable for
// local development.
func NewConsole() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).With().Timestamp().Logger()
}

// NewJSON returns a structured JSON logger writing to w, suitable for
// production hosts that ship logs to a collector.
func NewJSON(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
