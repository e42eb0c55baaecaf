package order

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseGet    = "order.get"
	useCaseStatus = "order.get_status"
	useCaseList   = "order.list_by_user"
)

type StatusView struct {
	OrderID   string
	Status    domain.Status
	UpdatedAt time.Time
}

// Queries serves order reads. Users see their own orders; managers and administrators see all.
type Queries struct {
	orders domain.Repository
	in     application.Instrument
}

func NewQueries(orders domain.Repository, tel observability.Observability) *Queries {
	return &Queries{orders: orders, in: application.NewInstrument(orderService, tel)}
}

func (q *Queries) GetOrder(ctx context.Context, actor identity.Actor, orderID string) (_ *domain.Order, err error) {
	ctx, run := q.in.Begin(ctx, useCaseGet, "GetOrder", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	return q.load(ctx, run, actor, orderID)
}

func (q *Queries) GetStatus(ctx context.Context, actor identity.Actor, orderID string) (_ StatusView, err error) {
	ctx, run := q.in.Begin(ctx, useCaseStatus, "GetOrderStatus", attribute.String("order.id", orderID))
	defer func() { run.End(err) }()

	o, err := q.load(ctx, run, actor, orderID)
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{OrderID: o.ID, Status: o.Status, UpdatedAt: o.UpdatedAt}, nil
}

func (q *Queries) ListByUser(ctx context.Context, actor identity.Actor, userID string, page domain.Page) (_ domain.PageResult, err error) {
	ctx, run := q.in.Begin(ctx, useCaseList, "GetOrdersByUser",
		attribute.String("order.user_id", userID),
		attribute.Int("page.number", page.Number),
	)
	defer func() { run.End(err) }()

	if err := actor.RequireAccess(userID); err != nil {
		run.Fail("UNAUTHORIZED")
		return domain.PageResult{}, err
	}
	result, err := q.orders.ListByUser(ctx, userID, page.Normalize())
	if err != nil {
		run.Fail("ORDER_LIST_FAILED")
		return domain.PageResult{}, wrapRepositoryError(err)
	}
	run.Note(observability.F("orders_total", result.Total))
	return result, nil
}

func (q *Queries) load(ctx context.Context, run *application.Run, actor identity.Actor, orderID string) (*domain.Order, error) {
	o, err := q.orders.Get(ctx, orderID)
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
	if err := actor.RequireAccess(o.UserID); err != nil {
		run.Fail("UNAUTHORIZED")
		return nil, err
	}
	return o, nil
}
