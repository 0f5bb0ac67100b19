package vecsim

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/vecsim/engine"
)

// Logger wraps slog.Logger with vecsim-specific context.
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

// WithCollection adds a collection field to the logger.
func (l *Logger) WithCollection(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("collection", name),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, collection, id string, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"collection", collection,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"collection", collection,
			"id", id,
			"dimension", dimension,
		)
	}
}

// LogBatchAdd logs a batch add operation.
func (l *Logger) LogBatchAdd(ctx context.Context, collection string, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch add completed with failures",
			"collection", collection,
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, "batch add completed",
			"collection", collection,
			"count", count,
		)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(ctx context.Context, collection, documentID string, removed int) {
	l.DebugContext(ctx, "remove completed",
		"collection", collection,
		"documentId", documentID,
		"removed", removed,
	)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, collection, mode string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"collection", collection,
			"mode", mode,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"collection", collection,
			"mode", mode,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogSave logs a persistence save.
func (l *Logger) LogSave(ctx context.Context, collection string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"collection", collection,
			"records", records,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "save completed",
			"collection", collection,
			"records", records,
		)
	}
}

// LogLoad logs a startup load of one collection.
func (l *Logger) LogLoad(ctx context.Context, collection string, loaded, skipped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"collection", collection,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "load completed",
			"collection", collection,
			"loaded", loaded,
			"skipped", skipped,
		)
	}
}

// LogDrop logs a collection drop.
func (l *Logger) LogDrop(ctx context.Context, collection string, existed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "drop failed",
			"collection", collection,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "drop completed",
			"collection", collection,
			"existed", existed,
		)
	}
}

// engineLogger adapts the structured Logger to the engine's printf
// seam.
type engineLogger struct {
	l *Logger
}

var _ engine.Logger = engineLogger{}

func (el engineLogger) Infof(format string, args ...any) {
	el.l.Info(fmt.Sprintf(format, args...))
}

func (el engineLogger) Warnf(format string, args ...any) {
	el.l.Warn(fmt.Sprintf(format, args...))
}

func (el engineLogger) Errorf(format string, args ...any) {
	el.l.Error(fmt.Sprintf(format, args...))
}
