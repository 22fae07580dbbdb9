// Package logger builds the process-wide slog logger: a tint console
// handler on stderr, optionally fanned out to a size-rotated log file.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Option configures the logger
type Option func(*options)

type options struct {
	level   slog.Level
	logFile string
	noColor bool
}

// WithLevel sets the minimum log level
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithLogFile enables logging to a rotated file in addition to the console
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithNoColor disables ANSI colors on the console handler
func WithNoColor(noColor bool) Option {
	return func(o *options) { o.noColor = noColor }
}

// New creates a configured slog logger
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:   slog.LevelInfo,
		noColor: os.Getenv("NO_COLOR") != "",
	}
	for _, opt := range opts {
		opt(o)
	}

	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      o.level,
		TimeFormat: time.Kitchen,
		NoColor:    o.noColor,
	})

	if o.logFile == "" {
		return slog.New(console)
	}

	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}, &slog.HandlerOptions{Level: o.level})

	return slog.New(fanoutHandler{console, file})
}

// fanoutHandler duplicates records to every wrapped handler
type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, hh := range h {
		if !hh.Enabled(ctx, record.Level) {
			continue
		}
		if err := hh.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanoutHandler, len(h))
	for i, hh := range h {
		next[i] = hh.WithAttrs(attrs)
	}
	return next
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	next := make(fanoutHandler, len(h))
	for i, hh := range h {
		next[i] = hh.WithGroup(name)
	}
	return next
}
