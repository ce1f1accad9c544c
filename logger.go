package refarena

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with allocator-specific helpers.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDepth adds a scope depth field to the logger.
func (l *Logger) WithDepth(depth int) *Logger {
	return &Logger{
		Logger: l.Logger.With("depth", depth),
	}
}

// LogScopeEnter logs a scope entry.
func (l *Logger) LogScopeEnter(depth int, capacity int64) {
	l.Debug("scope entered",
		"depth", depth,
		"capacity", capacity,
	)
}

// LogScopeExit logs a scope exit. live is the number of region-resident
// instances whose reference count never reached zero; a non-zero value
// means heap references held by those instances were never released.
func (l *Logger) LogScopeExit(depth int, live int64, used int64, chunks int, err error) {
	if err != nil {
		l.Error("scope exit failed",
			"depth", depth,
			"error", err,
		)
		return
	}
	if live > 0 {
		l.Warn("objects still alive at scope exit",
			"depth", depth,
			"live", live,
		)
	}
	l.Debug("scope exited",
		"depth", depth,
		"used", used,
		"chunks", chunks,
	)
}

// LogOverflow logs a rejected allocation.
func (l *Logger) LogOverflow(depth int, err error) {
	l.Debug("allocation rejected",
		"depth", depth,
		"error", err,
	)
}
