package log

import (
	"context"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// WithLogger stores a request-scoped logger in the context.
// GinMiddleware does this for every request so downstream code picks
// up the request id and route fields automatically.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Ctx returns the request-scoped logger, or the global logger when
// called outside a request (startup, the relay loop, tests).
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return l
	}
	return global
}
