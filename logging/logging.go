// Package logging provides the structured logger used across the server.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

var root = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: "15:04:05",
}).With().Timestamp().Logger()

// New returns a logger tagged with the originating component.
func New(component string) zerolog.Logger {
	return root.With().Str("component", component).Logger()
}

// SetLevel adjusts the global log level ("debug", "info", ...).
func SetLevel(level string) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
