package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls process-wide logging. Pretty switches the output from JSON
// to a console writer for local runs.
type Config struct {
	Level   string
	Pretty  bool
	Service string
}

// Setup configures the global zerolog logger and returns it so callers can
// derive component loggers from the same root.
func Setup(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	root := zerolog.New(os.Stdout)
	if cfg.Pretty {
		root = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	ctx := root.With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}

	log.Logger = ctx.Logger()
	return log.Logger
}
