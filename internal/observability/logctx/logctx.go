// Package logctx carries the request- or event-scoped logger through a context.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

type loggerKey struct{}

// With returns ctx carrying logger. A nil logger leaves ctx untouched.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

func From(ctx context.Context) observability.Logger {
	return FromOr(ctx, nil)
}

// FromOr returns the scoped logger, or fallback when ctx has none.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if ctx == nil {
		return fallback
	}
	if logger, ok := ctx.Value(loggerKey{}).(observability.Logger); ok {
		return logger
	}
	return fallback
}

// Enrich binds fields to the scoped logger so every later line in the request carries them.
// Without a scoped logger it returns ctx unchanged.
func Enrich(ctx context.Context, fields ...observability.Field) context.Context {
	logger := From(ctx)
	if logger == nil || len(fields) == 0 {
		return ctx
	}
	return With(ctx, logger.With(fields...))
}
