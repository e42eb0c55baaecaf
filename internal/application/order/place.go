package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const useCasePlace = "order.place"

type PlaceOrderInput struct {
	Actor identity.Actor
}

var _ application.UseCase[PlaceOrderInput, *domain.Order] = (*PlaceOrderUseCase)(nil)

// PlaceOrderUseCase turns the caller's cart into a PENDING_PAYMENT order.
type PlaceOrderUseCase struct {
	carts       cart.Repository
	catalog     catalog.Lookup
	ledger      inventory.Ledger
	orders      domain.Repository
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	clock       application.Clock
	in          application.Instrument

	reservations observability.Counter // stock_reservations_total{outcome}
}

func NewPlaceOrderUseCase(
	carts cart.Repository,
	lookup catalog.Lookup,
	ledger inventory.Ledger,
	orders domain.Repository,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	clock application.Clock,
	tel observability.Observability,
) *PlaceOrderUseCase {
	metrics := observability.NopMetrics()
	if tel != nil {
		metrics = tel.Metrics()
	}
	return &PlaceOrderUseCase{
		carts:        carts,
		catalog:      lookup,
		ledger:       ledger,
		orders:       orders,
		idGenerator:  idGen,
		publisher:    publisher,
		clock:        clock,
		in:           application.NewInstrument(orderService, tel),
		reservations: metrics.Counter(observability.MStockReservations),
	}
}

// Execute reserves stock for every cart line, snapshots prices, empties the cart and stores
// the order. When a step fails, the steps that already took effect are compensated.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *domain.Order, err error) {
	userID := cmd.Actor.UserID
	ctx, run := uc.in.Begin(ctx, useCasePlace, "PlaceOrder",
		attribute.String("order.user_id", userID),
	)
	defer func() { run.End(err) }()

	if userID == "" {
		run.Fail("UNAUTHORIZED")
		return nil, identity.ErrUnauthorized
	}
	if err := run.Guard(ctx); err != nil {
		return nil, err
	}

	c, err := uc.carts.Get(ctx, userID)
	if err != nil {
		run.Fail("CART_LOOKUP_FAILED")
		return nil, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
	if c.IsEmpty() {
		run.Fail("CART_EMPTY")
		return nil, cart.ErrEmptyCart
	}

	lines := make([]domain.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		p, err := uc.catalog.Product(ctx, l.ProductID)
		if err != nil {
			run.Fail("PRODUCT_LOOKUP_FAILED")
			return nil, fmt.Errorf("order: product %d: %w", l.ProductID, err)
		}
		lines = append(lines, domain.SnapshotLine(p, l.Quantity))
	}

	uow := application.Begin()
	defer func() {
		if err == nil {
			return
		}
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			run.Logger().Error("compensation_failed",
				observability.Err(rbErr),
			)
			run.Note(observability.F("compensation_error", rbErr.Error()))
		}
	}()

	for _, l := range lines {
		if err := uc.reserve(ctx, uow, l.ProductID, l.Quantity); err != nil {
			status := "STOCK_RESERVE_FAILED"
			if errors.Is(err, inventory.ErrInsufficientStock) {
				status = "INSUFFICIENT_STOCK"
			}
			run.Fail(status)
			return nil, err
		}
	}

	now := uc.clock.Now()
	entity, err := domain.New(uc.idGenerator.NewID(), userID, lines, now)
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, fmt.Errorf("order: construct: %w", err)
	}

	ordered := orderedLines(lines)
	if _, err := uc.carts.Mutate(ctx, userID, func(c *cart.Cart) error {
		return c.Consume(ordered, now)
	}); err != nil {
		status := "CART_CONSUME_FAILED"
		if errors.Is(err, cart.ErrConflict) {
			status = "CART_CHANGED"
		}
		run.Fail(status)
		return nil, err
	}
	uow.Defer("restore cart "+userID, func(ctx context.Context) error {
		_, err := uc.carts.Mutate(ctx, userID, func(c *cart.Cart) error {
			for _, l := range ordered {
				if _, err := c.AddItem(l.ProductID, l.Quantity, now); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	})

	// The order row is written last so a failed placement never leaves one behind.
	if err := uc.orders.Insert(ctx, entity); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}

	uow.AfterCommit(func(ctx context.Context) error {
		return uc.in.Publish(ctx, uc.publisher, domain.NewPlacedEvent(entity))
	})
	if hookErr := uow.Commit(ctx); hookErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Span().RecordError(hookErr)
		run.Logger().Warn("event_publish_failed",
			observability.F("event", domain.EventNamePlaced),
			observability.F("order_id", entity.ID),
			observability.Err(hookErr),
		)
	}

	run.Note(observability.F("order_id", entity.ID), observability.F("order_total", entity.Total.String()))
	run.Span().SetAttributes(attribute.String("order.status", string(entity.Status)))
	run.Span().AddEvent("order.placed", trace.WithAttributes(attribute.String("order.id", entity.ID)))
	return entity, nil
}

func (uc *PlaceOrderUseCase) reserve(ctx context.Context, uow *application.UnitOfWork, productID int64, qty int) error {
	if err := uc.ledger.Reserve(ctx, productID, qty); err != nil {
		outcome := "error"
		if errors.Is(err, inventory.ErrInsufficientStock) {
			outcome = "insufficient"
		}
		uc.reservations.Add(1, observability.L("outcome", outcome))
		return err
	}
	uc.reservations.Add(1, observability.L("outcome", "success"))
	uow.Defer(fmt.Sprintf("release product %d", productID), func(ctx context.Context) error {
		if err := uc.ledger.Release(ctx, productID, qty); err != nil {
			return err
		}
		uc.reservations.Add(1, observability.L("outcome", "released"))
		return nil
	})
	return nil
}

func orderedLines(lines []domain.Line) []cart.Line {
	out := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, cart.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}
