package sctable

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/sctable/table"
)

// Logger wraps slog.Logger with table-store specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithTable adds the table identity to the logger.
func (l *Logger) WithTable(id table.ID) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", id.String()),
	}
}

// LogLoad logs a table load. Corrupt tables are logged at error level.
func (l *Logger) LogLoad(ctx context.Context, id table.ID, size int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "table load failed",
			"table", id.String(),
			"duration", duration,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "table loaded",
		"table", id.String(),
		"bytes", size,
		"duration", duration,
	)
}

// LogEviction logs a table leaving the cache.
func (l *Logger) LogEviction(ctx context.Context, id table.ID) {
	l.DebugContext(ctx, "table evicted",
		"table", id.String(),
	)
}

// LogWarm logs a cache preload.
func (l *Logger) LogWarm(ctx context.Context, requested int, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "cache warm-up incomplete",
			"requested", requested,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "cache warmed",
		"tables", requested,
		"duration", duration,
	)
}

// LogClose logs reader shutdown.
func (l *Logger) LogClose(ctx context.Context, stats Stats) {
	l.InfoContext(ctx, "reader closed",
		"hits", stats.Hits,
		"misses", stats.Misses,
		"loads", stats.Loads,
		"evictions", stats.Evictions,
		"resident", stats.Resident,
	)
}
