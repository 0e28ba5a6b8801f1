package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger with a field-oriented helper API
type Logger struct {
	*slog.Logger
}

// Options configure where and how verbosely the logger writes
type Options struct {
	Level string
	// File enables an additional rotating log file when non-empty
	File string
}

// NewLogger creates a logger writing to stdout.
// Development uses a human-readable text handler, production uses JSON.
func NewLogger(isDevelopment bool) *Logger {
	return newLogger(isDevelopment, slog.LevelDebug, os.Stdout)
}

// NewLoggerWithOptions creates a logger honouring level and file settings.
// The returned closer releases the log file, if any.
func NewLoggerWithOptions(isDevelopment bool, opts Options) (*Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closer = rotator
	}

	return newLogger(isDevelopment, ParseLevel(opts.Level), out), closer
}

// NewTestLogger returns a logger that discards output
func NewTestLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newLogger(isDevelopment bool, level slog.Level, out io.Writer) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithFields returns a child logger carrying the given key/value pairs
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
