// Package logging wires up the zerolog logger shared by the CLI and the
// domain packages it drives.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a [zerolog.Logger] writing to w.
//
// format selects the output style: "json" (default, machine-readable) or
// "console" (human-readable, colorized if w is a terminal). level parses
// via [zerolog.ParseLevel]; an empty or unrecognized level falls back to
// [zerolog.InfoLevel].
func New(w io.Writer, level, format string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}

	var writer io.Writer = w

	if strings.EqualFold(format, "console") {
		writer = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, for tests and callers
// that have not been given a real one.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
