// Package logging builds the structured logger shared by every component,
// following the teacher's zerolog setup.
package logging

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level and output format.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, pretty
}

// New returns a zerolog.Logger configured per cfg, with a "service" field
// and RFC3339 timestamps.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stdout

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).With().Timestamp().Str("service", "kvstored").Logger()
}

// WithFile returns a logger that also writes to the given file path, in
// addition to stdout, if path is non-empty (spec.md §6 "logfile").
func WithFile(logger zerolog.Logger, path string) (zerolog.Logger, *os.File, error) {
	if path == "" {
		return logger, nil, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return logger, nil, err
	}
	multi := zerolog.MultiLevelWriter(os.Stdout, f)
	return zerolog.New(multi).With().Timestamp().Str("service", "kvstored").Logger(), f, nil
}

// LogPanic renders a recovered panic with a stack trace at Error level
// (the caller decides whether to escalate to a fatal shutdown).
func LogPanic(logger zerolog.Logger, recovered interface{}, msg string) {
	logger.Error().
		Interface("panic", recovered).
		Str("stack", string(debug.Stack())).
		Msg(msg)
}
