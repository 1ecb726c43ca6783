// Package logging constructs the service logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger configured for the given environment.
// Development gets a human-readable console writer at debug level,
// everything else structured JSON at info level.
func New(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}
