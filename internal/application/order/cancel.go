package order

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseCancel = "order.cancel"

type CancelOrderInput struct {
	Actor   identity.Actor
	OrderID string
}

var _ application.UseCase[CancelOrderInput, *domain.Order] = (*CancelOrderUseCase)(nil)

// CancelOrderUseCase cancels a PENDING_PAYMENT order and returns its stock to the ledger.
type CancelOrderUseCase struct {
	orders    domain.Repository
	ledger    inventory.Ledger
	publisher domoutbox.Publisher
	clock     application.Clock
	in        application.Instrument

	reservations observability.Counter
}

func NewCancelOrderUseCase(
	orders domain.Repository,
	ledger inventory.Ledger,
	publisher domoutbox.Publisher,
	clock application.Clock,
	tel observability.Observability,
) *CancelOrderUseCase {
	metrics := observability.NopMetrics()
	if tel != nil {
		metrics = tel.Metrics()
	}
	return &CancelOrderUseCase{
		orders:       orders,
		ledger:       ledger,
		publisher:    publisher,
		clock:        clock,
		in:           application.NewInstrument(orderService, tel),
		reservations: metrics.Counter(observability.MStockReservations),
	}
}

// Execute moves the order to CANCELLED, then releases every reserved line.
// The owner, a manager or an administrator may cancel.
func (uc *CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseCancel, "CancelOrder",
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() { run.End(err) }()

	if err := run.Guard(ctx); err != nil {
		return nil, err
	}

	cancelled, err := uc.orders.Update(ctx, cmd.OrderID, func(o *domain.Order) error {
		if err := cmd.Actor.RequireAccess(o.UserID); err != nil {
			return err
		}
		return o.Cancel(uc.clock.Now())
	})
	if err != nil {
		run.Fail(failureStatus(err))
		if isDomainError(err) {
			return nil, err
		}
		return nil, wrapRepositoryError(err)
	}

	relErr := inventory.ReleaseAll(ctx, uc.ledger, cancelled.ReservedLines())
	if relErr == nil {
		uc.reservations.Add(float64(len(cancelled.Lines)), observability.L("outcome", "released"))
	}

	// The order is cancelled either way, so the event goes out even when the release failed.
	if pubErr := uc.in.Publish(ctx, uc.publisher, domain.NewCancelledEvent(cancelled, cmd.Actor.UserID)); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Logger().Warn("event_publish_failed",
			observability.F("event", domain.EventNameCancelled),
			observability.F("order_id", cancelled.ID),
			observability.Err(pubErr),
		)
	}

	if relErr != nil {
		run.Fail("STOCK_RELEASE_FAILED")
		run.Logger().Error("stock_release_failed",
			observability.F("order_id", cancelled.ID),
			observability.Err(relErr),
		)
		return cancelled, fmt.Errorf("%w: %w", ErrStockRelease, relErr)
	}
	run.Note(observability.F("order_id", cancelled.ID))
	return cancelled, nil
}
