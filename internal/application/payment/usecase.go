package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService        = "payment-service"
	useCasePaymentConfirm = "payment.confirm"
	paymentSpanName       = "ConfirmPayment"
)

type ConfirmPaymentInput struct {
	Actor   identity.Actor
	OrderID string
	Method  string
}

var _ application.UseCase[ConfirmPaymentInput, *domorder.Order] = (*ConfirmPaymentUseCase)(nil)

// ConfirmPaymentUseCase records an externally confirmed payment on a PENDING_PAYMENT order.
type ConfirmPaymentUseCase struct {
	orders    domorder.Repository
	publisher domoutbox.Publisher
	clock     application.Clock
	in        application.Instrument
}

func NewConfirmPaymentUseCase(
	orders domorder.Repository,
	publisher domoutbox.Publisher,
	clock application.Clock,
	tel observability.Observability,
) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{
		orders:    orders,
		publisher: publisher,
		clock:     clock,
		in:        application.NewInstrument(paymentService, tel),
	}
}

// Execute checks, in order, that the order exists, belongs to the caller, is awaiting payment
// and names an accepted method. The order.paid event is published after the state is stored;
// a publish failure is logged and does not undo the payment.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *domorder.Order, err error) {
	ctx, run := uc.in.Begin(ctx, useCasePaymentConfirm, paymentSpanName,
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.method", cmd.Method),
	)
	defer func() { run.End(err) }()

	if err := run.Guard(ctx); err != nil {
		return nil, err
	}

	paid, err := uc.orders.Update(ctx, cmd.OrderID, func(o *domorder.Order) error {
		if err := cmd.Actor.RequireOwner(o.UserID); err != nil {
			return err
		}
		return o.ConfirmPayment(cmd.Method, uc.clock.Now())
	})
	if err != nil {
		run.Fail(statusFor(err))
		return nil, classify(err)
	}

	if hookErr := uc.in.Publish(ctx, uc.publisher, domorder.NewPaidEvent(paid)); hookErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Span().RecordError(hookErr)
		run.Logger().Warn("event_publish_failed",
			observability.F("event", domorder.EventNamePaid),
			observability.F("order_id", paid.ID),
			observability.Err(hookErr),
		)
	}

	run.Span().AddEvent("order.paid", trace.WithAttributes(
		attribute.String("order.id", paid.ID),
		attribute.String("payment.method", string(paid.PaymentMethod)),
	))
	run.Note(observability.F("order_id", paid.ID))
	return paid, nil
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, domorder.ErrNotFound):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, identity.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, domorder.ErrInvalidStateTransition):
		return "INVALID_STATE_TRANSITION"
	case errors.Is(err, dompay.ErrInvalidMethod):
		return "PAYMENT_METHOD_INVALID"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "ORDER_UPDATE_FAILED"
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, identity.ErrUnauthorized),
		errors.Is(err, domorder.ErrInvalidStateTransition),
		errors.Is(err, domorder.ErrConflict),
		errors.Is(err, dompay.ErrInvalidMethod),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
}
