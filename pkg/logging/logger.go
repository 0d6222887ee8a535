// Package logging sets up the zerolog logger shared by the collector packages.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the process-wide logger. The zero value logs JSON at info
// level to stderr.
type Config struct {
	Level  string // debug, info, warn or error
	Pretty bool   // console output instead of JSON
	Output io.Writer
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request URLs, pagination bookkeeping, token expiry arithmetic.
//
// Info: authentication success, per-page progress, collection start/stop,
// progress every 100 saved records.
//
// Warn: non-2xx responses, per-record save failures, pacing interrupted.
//
// Error: authentication failure, store connection problems.
//
// Context Fields:
//   - component: emitting component (petfinder-client, token-manager, ...)
//   - endpoint: API path
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network, auth
//   - page / total_pages: pagination position
//   - external_id: upstream record identifier
//   - run_id: collection run identifier
//   - saved / failed: running tallies
