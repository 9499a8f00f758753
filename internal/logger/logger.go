// Package logger builds the zerolog logger shared by the commands.
package logger

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/mickamy/repokit/config"
	"github.com/mickamy/repokit/orm"
)

// New returns a logger writing to w at the configured level. Local
// environments get human readable console output; others get JSON.
func New(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.IsLocal() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("env", cfg.Env).Logger()
}

// QueryLogger writes every statement sent through an orm.DB at debug level.
type QueryLogger struct {
	log zerolog.Logger
}

// NewQueryLogger returns a QueryLogger that writes to log.
func NewQueryLogger(log zerolog.Logger) *QueryLogger {
	return &QueryLogger{log: log.With().Str("component", "sql").Logger()}
}

func (l *QueryLogger) Log(_ context.Context, query string, args ...any) {
	l.log.Debug().Str("query", query).Interface("args", args).Msg("exec")
}

var _ orm.Logger = (*QueryLogger)(nil)
