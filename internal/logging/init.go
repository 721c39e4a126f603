// Package logging configures the process-wide slog logger.
//
// Diagnostic logs go to stderr and never mix with the operator-facing
// transcript, which is written by the output package to stdout.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Supported handler formats.
const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

// Defaults applied when the configuration leaves a field empty. The
// installer's own transcript already reports progress, so only warnings
// and errors are logged unless asked otherwise.
const (
	DefaultLevel  = "warn"
	DefaultFormat = Tint
)

type handlerFunc func(w io.Writer, opts *slog.HandlerOptions) slog.Handler

var handlers = map[string]handlerFunc{
	JSON: func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
		return slog.NewJSONHandler(w, opts)
	},
	Text: func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
		return slog.NewTextHandler(w, opts)
	},
	Tint: func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
		return tint.NewHandler(w, &tint.Options{
			AddSource:  opts.AddSource,
			Level:      opts.Level,
			TimeFormat: time.TimeOnly,
		})
	},
}

// ParseLevel parses a level name such as "debug" or "warn". An empty name
// yields [DefaultLevel].
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		name = DefaultLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("could not parse log level %q: %w", name, err)
	}
	return level, nil
}

// ValidFormat reports whether format names a supported handler. The empty
// string is valid and means [DefaultFormat].
func ValidFormat(format string) bool {
	if format == "" {
		return true
	}
	_, ok := handlers[format]
	return ok
}

// Initialize installs a slog default logger of the given format and level
// writing to w. Source locations are only recorded at debug level.
func Initialize(format, levelName string, w io.Writer) error {
	level, err := ParseLevel(levelName)
	if err != nil {
		return err
	}

	if format == "" {
		format = DefaultFormat
	}
	newHandler, ok := handlers[format]
	if !ok {
		return fmt.Errorf("unknown logging format: %s", format)
	}

	opts := &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	}
	slog.SetDefault(slog.New(newHandler(w, opts)))
	slog.Debug("logging initialized", "level", level, "format", format)
	return nil
}

// WithRun tags every subsequent record of the default logger with runID.
func WithRun(runID string) {
	slog.SetDefault(slog.Default().With("run_id", runID))
}
