// Package logger carries the request-scoped slog.Logger through context.Context
// so that services can log without depending on the HTTP layer.
package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default() if there is none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// SecurityEvent logs a security-relevant event at WARN level, tagged so it
// can be filtered for audit.
func SecurityEvent(ctx context.Context, event string, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("security_event", event))
	for _, a := range attrs {
		args = append(args, a)
	}
	FromContext(ctx).WarnContext(ctx, "Security event", args...)
}
