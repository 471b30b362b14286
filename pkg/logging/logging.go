// Package logging builds the zerolog.Logger shared by every component.
//
// stdout carries the LSP stream when serving, so logs go to stderr or to
// the configured file, never stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/config"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a logger for cfg writing to w, or to cfg.LogFile when set.
// The returned close function releases the log file and is never nil.
func New(cfg *config.Config, w io.Writer) (zerolog.Logger, func() error, error) {
	closer := func() error { return nil }

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), closer, err
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("%s: %w", errors.ErrMsgFailedToOpenLogFile, err)
		}
		w = f
		closer = f.Close
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "", FormatJSON:
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: cfg.LogFile != ""}
	default:
		closer()
		return zerolog.Nop(), func() error { return nil }, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// ParseLevel accepts zerolog level names. An empty string means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Component returns a child logger tagged with the component name
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
