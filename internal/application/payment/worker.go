package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domnotify "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	notificationWorker    = "notification-worker"
	useCaseNotifyPaid     = "payment.notify_paid"
	DefaultNotifyAttempts = 3
	DefaultNotifyBackoff  = 5 * time.Second
)

// NotificationWorker sends the owner of a paid order a summary document.
// Delivery is best-effort: failures are retried with linear backoff, then logged.
type NotificationWorker struct {
	orders   domorder.Repository
	renderer DocumentRenderer
	sink     domnotify.Sink

	maxAttempts int
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	in            application.Instrument
	notifications observability.Counter // notifications_total{outcome}
}

type WorkerOption func(*NotificationWorker)

// WithRetry sets the number of attempts and the base backoff; attempt n waits n*backoff.
func WithRetry(attempts int, backoff time.Duration) WorkerOption {
	return func(w *NotificationWorker) {
		if attempts > 0 {
			w.maxAttempts = attempts
		}
		if backoff >= 0 {
			w.backoff = backoff
		}
	}
}

func NewNotificationWorker(
	orders domorder.Repository,
	renderer DocumentRenderer,
	sink domnotify.Sink,
	tel observability.Observability,
	opts ...WorkerOption,
) *NotificationWorker {
	metrics := observability.NopMetrics()
	if tel != nil {
		metrics = tel.Metrics()
	}
	w := &NotificationWorker{
		orders:        orders,
		renderer:      renderer,
		sink:          sink,
		maxAttempts:   DefaultNotifyAttempts,
		backoff:       DefaultNotifyBackoff,
		sleep:         sleepContext,
		in:            application.NewInstrument(notificationWorker, tel),
		notifications: metrics.Counter(observability.MNotifications),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start subscribes the worker to order.paid. wrap lets the caller decorate the handler.
func (w *NotificationWorker) Start(subscriber domoutbox.Subscriber, wrap ...domoutbox.Middleware) {
	if subscriber == nil {
		return
	}
	h := domoutbox.Chain(w.HandleOrderPaid, wrap...)
	subscriber.Subscribe(domorder.EventNamePaid, h)
}

// HandleOrderPaid renders and sends the paid-order document.
func (w *NotificationWorker) HandleOrderPaid(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.PaidEvent)
	if !ok {
		return nil
	}
	ctx, run := w.in.Begin(ctx, useCaseNotifyPaid, "NotifyOrderPaid",
		attribute.String("order.id", evt.OrderID),
	)
	defer func() { run.End(err) }()

	o, err := w.orders.Get(ctx, evt.OrderID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return fmt.Errorf("notify: load order: %w", err)
	}
	doc, err := w.renderer.Render(o)
	if err != nil {
		run.Fail("RENDER_FAILED")
		return fmt.Errorf("notify: render: %w", err)
	}
	msg := domnotify.Message{
		UserID:      o.UserID,
		OrderID:     o.ID,
		Subject:     doc.Subject,
		Document:    doc.Body,
		ContentType: doc.ContentType,
	}

	for attempt := 1; ; attempt++ {
		err = w.sink.Send(ctx, msg)
		if err == nil {
			w.notifications.Add(1, observability.L("outcome", "sent"))
			run.Note(observability.F("attempts", attempt))
			return nil
		}
		run.Logger().Warn("notification_attempt_failed",
			observability.F("order_id", o.ID),
			observability.F("attempt", attempt),
			observability.Err(err),
		)
		if attempt >= w.maxAttempts {
			break
		}
		if sleepErr := w.sleep(ctx, w.backoff*time.Duration(attempt)); sleepErr != nil {
			err = sleepErr
			break
		}
	}

	w.notifications.Add(1, observability.L("outcome", "failed"))
	run.Fail("NOTIFICATION_FAILED")
	run.Logger().Error("notification_failed",
		observability.F("order_id", o.ID),
		observability.F("user_id", o.UserID),
		observability.Err(err),
	)
	return fmt.Errorf("notify: %w", err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
