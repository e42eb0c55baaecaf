package notify

import (
	"context"

	domnotify "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
)

// LogSink records messages in the log instead of delivering them.
type LogSink struct {
	log observability.Logger
}

func NewLogSink(log observability.Logger) *LogSink {
	if log == nil {
		log = observability.NopLogger()
	}
	return &LogSink{log: log.With(observability.F("component", "notify"))}
}

func (s *LogSink) Send(ctx context.Context, msg domnotify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logctx.FromOr(ctx, s.log).Info("notification_sent",
		observability.F("user_id", msg.UserID),
		observability.F("order_id", msg.OrderID),
		observability.F("subject", msg.Subject),
		observability.F("content_type", msg.ContentType),
		observability.F("bytes", len(msg.Document)),
	)
	return nil
}
