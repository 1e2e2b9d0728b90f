// Package logging wires zerolog for the batch commands.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs the global logger. Console output goes to stderr unless json is set.
// Every line carries the run_id so logs from concurrent jobs can be told apart.
func Init(debug, json bool) string {
	return InitWriter(os.Stderr, debug, json)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, debug, json bool) string {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	out := w
	if !json {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	runID := uuid.NewString()
	log.Logger = zerolog.New(out).With().Timestamp().Str("run_id", runID).Logger()
	return runID
}

// Component returns a child of the global logger tagged with component.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
