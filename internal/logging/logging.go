// Package logging configures the engine's single shared zerolog logger.
// Every manager and the scheduler take a logger at construction time
// rather than reaching for a package-level global, so tests can capture
// output and production wiring can redirect it.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console-friendly logger at the given level. level follows
// zerolog's names: "debug", "info", "warn", "error".
func New(levelName string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, for tests that don't care
// about log output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
