// Package logging builds the process-wide slog logger. Text output goes
// through tint; JSON output uses the standard slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
)

// Timestamp layouts. Files carry the date so the log tail can parse them.
const (
	ConsoleTimeFormat = "15:04:05"
	FileTimeFormat    = "2006-01-02 15:04:05"
)

// Options control logger construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	File   string // empty logs to Output only
	Output io.Writer
	// Color enables ANSI colors for Output. File output is never colored.
	Color bool
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// New returns a logger and a closer for any file it opened. The closer is
// never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nopCloser{}, err
	}

	out := opts.Output
	color := opts.Color
	timeFormat := ConsoleTimeFormat
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, closer, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("open log file: %w", err)
		}
		out = f
		color = false
		timeFormat = FileTimeFormat
		closer = f
	}
	if out == nil {
		out = io.Discard
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case "", "text":
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: timeFormat,
			NoColor:    !color,
		})
	default:
		_ = closer.Close()
		return nil, nopCloser{}, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
