package logger

import (
	"context"
	"log/slog"
)

type requestIDKey struct{}

type jobIDKey struct{}

// ContextWithRequestID stores the HTTP request ID on ctx.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// ContextWithJobID stores the generation job ID on ctx.
func ContextWithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, jobID)
}

func JobIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(jobIDKey{}).(string)
	return id, ok && id != ""
}

// ContextAttrs returns the identifiers stored on ctx as attributes.
func ContextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs := make([]slog.Attr, 0, 2)
	if id, ok := RequestIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldRequestID, id))
	}
	if id, ok := JobIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldJobID, id))
	}
	return attrs
}

// FromContext returns l enriched with the identifiers stored on ctx.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	attrs := ContextAttrs(ctx)
	if len(attrs) == 0 {
		return l
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return &Logger{Logger: l.Logger.With(args...)}
}
