package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"mahabharata-landing/pkg/telemetry"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance with the specified log level
func New(level string) *Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a logger writing JSON records to w
func NewWithWriter(w io.Writer, level string) *Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	handler := telemetry.NewContextHandler(slog.NewJSONHandler(w, opts))

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops every record
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// ParseLevel maps a level name to slog.Level, defaulting to INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithOrderID returns a logger with order ID context
func (l *Logger) WithOrderID(orderID string) *Logger {
	return &Logger{
		Logger: l.With("order_id", orderID),
	}
}

// WithDestination returns a logger with destination context
func (l *Logger) WithDestination(destination string) *Logger {
	return &Logger{
		Logger: l.With("destination", destination),
	}
}

// WithError returns a logger with error context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.With("error", err),
	}
}
