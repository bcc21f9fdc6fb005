// Package logger builds the structured zerolog logger shared by the binaries.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn or error; anything else means info
	Pretty bool   // human-readable console output instead of JSON
	Output io.Writer
}

var levels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

// ParseLevel maps a configured level name to a zerolog level
func ParseLevel(name string) zerolog.Level {
	if level, ok := levels[name]; ok {
		return level
	}
	return zerolog.InfoLevel
}

// New creates a logger writing to cfg.Output (stdout by default) and applies the
// configured level globally.
func New(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = os.Stdout
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// SetGlobalLogger makes l the logger behind github.com/rs/zerolog/log
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
