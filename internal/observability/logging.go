package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RunID     string
	RunKind   string
	Command   string
	Component string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds the current run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRunKind adds the run kind (install, repair, doctor, ...) to the context.
func WithRunKind(ctx context.Context, kind string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunKind = kind
	return context.WithValue(ctx, logContextKey, lc)
}

// WithCommand adds the routed command name to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	lc := extractLogContext(ctx)
	lc.Command = command
	return context.WithValue(ctx, logContextKey, lc)
}

// WithComponent adds the component being processed to the context.
func WithComponent(ctx context.Context, component string) context.Context {
	lc := extractLogContext(ctx)
	lc.Component = component
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 4)

	if lc.RunID != "" {
		attrs = append(attrs, logfields.RunID(lc.RunID))
	}
	if lc.RunKind != "" {
		attrs = append(attrs, logfields.RunKind(lc.RunKind))
	}
	if lc.Command != "" {
		attrs = append(attrs, logfields.Command(lc.Command))
	}
	if lc.Component != "" {
		attrs = append(attrs, logfields.Component(lc.Component))
	}
	return attrs
}

func logContext(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	all := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, level, msg, all...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelDebug, msg, attrs)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
