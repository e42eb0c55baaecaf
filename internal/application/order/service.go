package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

// Deps lists the collaborators of the order lifecycle.
type Deps struct {
	Carts       cart.Repository
	Catalog     catalog.Lookup
	Ledger      inventory.Ledger
	Orders      domain.Repository
	IDGenerator IDGenerator
	Publisher   domoutbox.Publisher
	Clock       application.Clock
	Telemetry   observability.Observability
}

// Service is the single entry point for the cart to order lifecycle.
type Service struct {
	place    *PlaceOrderUseCase
	confirm  *apppayment.ConfirmPaymentUseCase
	cancel   *CancelOrderUseCase
	delivery *UpdateDeliveryUseCase
	queries  *Queries
}

func NewService(d Deps) *Service {
	return &Service{
		place:    NewPlaceOrderUseCase(d.Carts, d.Catalog, d.Ledger, d.Orders, d.IDGenerator, d.Publisher, d.Clock, d.Telemetry),
		confirm:  apppayment.NewConfirmPaymentUseCase(d.Orders, d.Publisher, d.Clock, d.Telemetry),
		cancel:   NewCancelOrderUseCase(d.Orders, d.Ledger, d.Publisher, d.Clock, d.Telemetry),
		delivery: NewUpdateDeliveryUseCase(d.Orders, d.Publisher, d.Clock, d.Telemetry),
		queries:  NewQueries(d.Orders, d.Telemetry),
	}
}

func (s *Service) PlaceOrder(ctx context.Context, actor identity.Actor) (*domain.Order, error) {
	return s.place.Execute(ctx, PlaceOrderInput{Actor: actor})
}

func (s *Service) ConfirmPayment(ctx context.Context, actor identity.Actor, orderID, method string) (*domain.Order, error) {
	return s.confirm.Execute(ctx, apppayment.ConfirmPaymentInput{Actor: actor, OrderID: orderID, Method: method})
}

func (s *Service) CancelOrder(ctx context.Context, actor identity.Actor, orderID string) (*domain.Order, error) {
	return s.cancel.Execute(ctx, CancelOrderInput{Actor: actor, OrderID: orderID})
}

func (s *Service) UpdateOrderDelivery(ctx context.Context, in UpdateDeliveryInput) (*domain.Order, error) {
	return s.delivery.Execute(ctx, in)
}

func (s *Service) GetOrderStatus(ctx context.Context, actor identity.Actor, orderID string) (StatusView, error) {
	return s.queries.GetStatus(ctx, actor, orderID)
}

func (s *Service) GetOrderByID(ctx context.Context, actor identity.Actor, orderID string) (*domain.Order, error) {
	return s.queries.GetOrder(ctx, actor, orderID)
}

func (s *Service) GetOrdersByUser(ctx context.Context, actor identity.Actor, userID string, page domain.Page) (domain.PageResult, error) {
	return s.queries.ListByUser(ctx, actor, userID, page)
}

// Canceller exposes the cancel use case to background jobs.
func (s *Service) Canceller() *CancelOrderUseCase { return s.cancel }
