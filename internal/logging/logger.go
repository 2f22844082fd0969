// Package logging defines the context-aware structured logger used across
// kokoto-httpd and its log/slog implementation.
package logging

import "context"

// Logger takes key-value pairs after the message:
//
//	log.Info(ctx, "document archived", "id", id, "history_id", historyID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
