// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger wraps charmbracelet/log behind a small structured-logging
// interface so pipeline code can log keyvals without binding to a concrete
// backend.
package logger

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Level selects the minimum severity a logger emits.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Logger is the structured logging interface used across the pipeline.
// Keyvals are alternating key/value pairs.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)

	// With returns a child logger that prepends keyvals to every record.
	With(keyvals ...any) Logger
}

// Config controls logger construction.
type Config struct {
	// Level is the minimum severity to emit (default info).
	Level Level `json:"level" yaml:"level"`

	// JSON switches to JSON output for machine consumption.
	JSON bool `json:"json" yaml:"json"`

	// TimeFormat overrides the timestamp layout (default "15:04:05").
	TimeFormat string `json:"time_format,omitempty" yaml:"time_format,omitempty"`
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c charmLogger) With(keyvals ...any) Logger {
	return charmLogger{l: c.l.With(keyvals...)}
}

func charmLevel(l Level) charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// New builds a Logger writing to w according to cfg. A zero Config yields an
// info-level text logger.
func New(w io.Writer, cfg Config) Logger {
	if w == nil {
		w = os.Stderr
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           charmLevel(cfg.Level),
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return charmLogger{l: l}
}

// Nop returns a Logger that discards everything. Used as the default in
// constructors so callers may leave logging unset.
func Nop() Logger {
	return charmLogger{l: charmlog.New(io.Discard)}
}
