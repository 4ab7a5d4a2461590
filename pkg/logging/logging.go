// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ssargent/famblob/pkg/config"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "FAMBLOB_LOG_LEVEL"

// InitLogger builds a logger for app from cfg, installs it as the global
// logger and returns it. Output goes to out, or stderr when out is nil.
func InitLogger(app string, cfg config.Logging, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	levelName := cfg.Level
	if env := os.Getenv(EnvLevel); env != "" {
		levelName = env
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), err
	}

	var w io.Writer = out
	switch cfg.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(w).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger, nil
}

// ParseLevel maps a level name to a zerolog level. An empty name is info.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
