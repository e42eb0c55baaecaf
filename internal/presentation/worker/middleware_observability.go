package workerpresentation

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects an event-scoped logger for background executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes such as "worker" or "event".
func WithEventContext(ctx context.Context, base observability.Logger, attrs map[string]string) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 4+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// Wrap decorates bus handlers of the named worker. Each delivery gets its own
// event-scoped logger, and a failing handler leaves one event_handler_error line.
func Wrap(base observability.Logger, worker string) domoutbox.Middleware {
	if base == nil {
		base = observability.NopLogger()
	}
	return func(next domoutbox.Handler) domoutbox.Handler {
		return func(ctx context.Context, e domoutbox.Event) error {
			ctx = WithEventContext(ctx, base, map[string]string{
				"worker": worker,
				"event":  e.EventName(),
			})
			start := time.Now()
			err := next(ctx, e)
			if err != nil {
				logctx.FromOr(ctx, base).Error("event_handler_error",
					observability.Err(err),
					observability.F("latency_ms", time.Since(start).Milliseconds()),
				)
			}
			return err
		}
	}
}
