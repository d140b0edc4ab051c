// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration
type Config struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, pretty
}

// DefaultConfig returns info-level pretty logging to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "pretty"}
}

// Setup configures the global logger. Output goes to stderr so that
// command output on stdout stays machine-readable.
func Setup(cfg Config) error {
	return SetupWriter(cfg, os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(cfg Config, out io.Writer) error {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = out
	if cfg.Format == "pretty" {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// Component returns a logger tagged with the component name.
func Component(name string) *zerolog.Logger {
	l := log.With().Str("component", name).Logger()
	return &l
}

// Step returns a logger for one step of an article run.
func Step(runID, step string) *zerolog.Logger {
	l := log.With().
		Str("run_id", runID).
		Str("step", step).
		Logger()
	return &l
}
