// Package logging wraps zerolog with the printf-style methods used across
// pybuild.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Config struct {
	Level  string
	Format Format
	Output io.Writer // defaults to os.Stderr
}

type Logger struct {
	zl zerolog.Logger
}

func New(c Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if c.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(strings.ToLower(c.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
	}

	w := c.Output
	if w == nil {
		w = os.Stderr
	}

	switch c.Format {
	case "", FormatText:
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	case FormatJSON:
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Format)
	}

	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a logger that adds key=value to every message.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}
