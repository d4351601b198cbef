// Package logtrace provides logging and tracing utilities for the application.
// It integrates with zerolog for structured logging and carries a request ID
// through the context so every attempt of a logical call can be correlated.
package logtrace

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger with Unix millisecond timestamps,
// writing JSON lines to stderr.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// InitConsoleLogger initializes the global logger for interactive use. level
// is a zerolog level name; an empty string keeps "info".
func InitConsoleLogger(level string, pretty bool) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return err
		}
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}
