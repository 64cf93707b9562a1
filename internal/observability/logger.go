// Package observability provides structured logging and metrics collection.
//
// Logger wraps log/slog with a persistent component field and the overlay
// pipeline's domain events. MetricsCollector keeps a bounded window of render
// timings, confidences and compliance scores.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog with a persistent component name. A nil *Logger discards
// everything, so callers can leave logging unset.
type Logger struct {
	inner     *slog.Logger
	component string
}

// NewLogger creates a JSON logger at DEBUG level for a component.
// Output defaults to os.Stderr if w is nil.
func NewLogger(component string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &Logger{
		inner:     slog.New(handler),
		component: component,
	}
}

// NewLoggerWithOptions creates a logger with an explicit level
// (debug|info|warn|error) and format (json|text).
func NewLoggerWithOptions(component string, w io.Writer, level, format string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return NewLoggerWithHandler(component, h)
}

// NewLoggerWithHandler creates a logger with a custom slog handler.
func NewLoggerWithHandler(component string, h slog.Handler) *Logger {
	return &Logger{
		inner:     slog.New(h),
		component: component,
	}
}

// Nop returns a logger that writes nowhere.
func Nop() *Logger {
	return NewLoggerWithHandler("", slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a config string to a slog level; unknown values mean INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// With returns a new Logger with an additional persistent field.
func (l *Logger) With(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		inner:     l.inner.With(slog.Any(key, value)),
		component: l.component,
	}
}

// Named returns a copy of l for another component.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{inner: l.inner, component: component}
}

func (l *Logger) log(level slog.Level, msg string, args []any) {
	if l == nil {
		return
	}
	l.inner.Log(context.Background(), level, msg, append([]any{slog.String("component", l.component)}, args...)...)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// Stage logs a render state transition at DEBUG level.
func (l *Logger) Stage(state, msg string, args ...any) {
	l.log(slog.LevelDebug, msg, append([]any{slog.String("state", state)}, args...))
}

// RenderEvent logs the outcome of one render.
func (l *Logger) RenderEvent(template string, confidence, score float64, elapsed time.Duration, args ...any) {
	l.log(slog.LevelInfo, "render", append([]any{
		slog.String("template", template),
		slog.Float64("confidence", confidence),
		slog.Float64("score", score),
		slog.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000),
	}, args...))
}

// RepairEvent logs an auto-repair attempt for one issue type.
func (l *Logger) RepairEvent(issueType string, fixed bool, args ...any) {
	level := slog.LevelInfo
	if !fixed {
		level = slog.LevelWarn
	}
	l.log(level, "repair", append([]any{
		slog.String("issue", issueType),
		slog.Bool("fixed", fixed),
	}, args...))
}

// Component returns the component name associated with this logger.
func (l *Logger) Component() string {
	if l == nil {
		return ""
	}
	return l.component
}
