package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseDelivery = "order.update_delivery"

type UpdateDeliveryInput struct {
	Actor        identity.Actor
	OrderID      string
	Method       string
	Address      string
	ContactPhone string
}

var _ application.UseCase[UpdateDeliveryInput, *domain.Order] = (*UpdateDeliveryUseCase)(nil)

// UpdateDeliveryUseCase records delivery details on a PAID order and marks it DELIVERED.
type UpdateDeliveryUseCase struct {
	orders    domain.Repository
	publisher domoutbox.Publisher
	clock     application.Clock
	in        application.Instrument
}

func NewUpdateDeliveryUseCase(
	orders domain.Repository,
	publisher domoutbox.Publisher,
	clock application.Clock,
	tel observability.Observability,
) *UpdateDeliveryUseCase {
	return &UpdateDeliveryUseCase{
		orders:    orders,
		publisher: publisher,
		clock:     clock,
		in:        application.NewInstrument(orderService, tel),
	}
}

func (uc *UpdateDeliveryUseCase) Execute(ctx context.Context, cmd UpdateDeliveryInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseDelivery, "UpdateOrderDelivery",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.delivery_method", cmd.Method),
	)
	defer func() { run.End(err) }()

	details, err := domain.NewDelivery(cmd.Method, cmd.Address, cmd.ContactPhone)
	if err != nil {
		run.Fail("DELIVERY_INVALID")
		return nil, err
	}
	if err := run.Guard(ctx); err != nil {
		return nil, err
	}

	delivered, err := uc.orders.Update(ctx, cmd.OrderID, func(o *domain.Order) error {
		if err := cmd.Actor.RequireAccess(o.UserID); err != nil {
			return err
		}
		return o.UpdateDelivery(details, uc.clock.Now())
	})
	if err != nil {
		run.Fail(failureStatus(err))
		if isDomainError(err) {
			return nil, err
		}
		return nil, wrapRepositoryError(err)
	}

	if pubErr := uc.in.Publish(ctx, uc.publisher, domain.NewDeliveredEvent(delivered)); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Note(observability.F("event_publish_error", pubErr.Error()))
	}
	run.Note(observability.F("order_id", delivered.ID))
	return delivered, nil
}
