// Package logger configures process-wide zerolog output.
//
// All log output goes to stderr: in MCP server mode stdout carries the
// protocol stream and must stay clean.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogLevel selects the log level (debug, info, warn, error). Default: info.
const EnvLogLevel = "MEMCAP_LOG_LEVEL"

// Setup initializes the global logger and returns it.
func Setup() zerolog.Logger {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	logger := zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = logger
	return logger
}
