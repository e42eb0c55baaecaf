package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeFor(t *testing.T, f *fixture, actor identity.Actor, productID int64, qty int) *domain.Order {
	t.Helper()
	f.addToCart(actor.UserID, productID, qty)
	o, err := f.svc.PlaceOrder(context.Background(), actor)
	require.NoError(t, err)
	return o
}

func TestCancelRestoresStockOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 4)
	o := placeFor(t, f, alice, 1, 3)
	require.Equal(t, 1, f.available(1))

	cancelled, err := f.svc.CancelOrder(ctx, alice, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 4, f.available(1))

	_, err = f.svc.CancelOrder(ctx, alice, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, 4, f.available(1))

	assert.Equal(t, []string{domain.EventNamePlaced, domain.EventNameCancelled}, f.publisher.names())
}

type stuckLedger struct {
	inventory.Ledger
}

func (stuckLedger) Release(context.Context, int64, int) error {
	return errors.New("ledger unavailable")
}

func TestCancelStillPublishesWhenReleaseFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 4)
	o := placeFor(t, f, alice, 1, 2)

	deps := f.deps()
	deps.Ledger = stuckLedger{Ledger: f.ledger}
	svc := NewService(deps)

	cancelled, err := svc.CancelOrder(ctx, alice, o.ID)
	require.ErrorIs(t, err, ErrStockRelease)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 2, f.available(1))
	assert.Equal(t, []string{domain.EventNamePlaced, domain.EventNameCancelled}, f.publisher.names())
}

func TestCancelAccessRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 4)
	o := placeFor(t, f, alice, 1, 1)

	_, err := f.svc.CancelOrder(ctx, bob, o.ID)
	assert.ErrorIs(t, err, identity.ErrUnauthorized)
	_, err = f.svc.CancelOrder(ctx, alice, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.CancelOrder(ctx, manager, o.ID)
	require.NoError(t, err)
}

func TestCancelPaidOrderIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 4)
	o := placeFor(t, f, alice, 1, 1)
	_, err := f.svc.ConfirmPayment(ctx, alice, o.ID, "CARD")
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, alice, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, 3, f.available(1))
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 10)
	o := placeFor(t, f, alice, 1, 1)

	_, err := f.svc.ConfirmPayment(ctx, alice, "missing", "CARD")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.ConfirmPayment(ctx, bob, o.ID, "CARD")
	assert.ErrorIs(t, err, identity.ErrUnauthorized)
	_, err = f.svc.ConfirmPayment(ctx, manager, o.ID, "CARD")
	assert.ErrorIs(t, err, identity.ErrUnauthorized, "payment is owner-only")
	_, err = f.svc.ConfirmPayment(ctx, alice, o.ID, "IOU")
	assert.ErrorIs(t, err, payment.ErrInvalidMethod)

	paid, err := f.svc.ConfirmPayment(ctx, alice, o.ID, "CARD")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	assert.Equal(t, payment.MethodCard, paid.PaymentMethod)
	assert.Contains(t, f.publisher.names(), domain.EventNamePaid)

	_, err = f.svc.ConfirmPayment(ctx, alice, o.ID, "CARD")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestConfirmCancelledOrderFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 10)
	o := placeFor(t, f, alice, 1, 1)
	_, err := f.svc.CancelOrder(ctx, alice, o.ID)
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, alice, o.ID, "CARD")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestConfirmPaymentSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 10)
	o := placeFor(t, f, alice, 1, 1)
	f.publisher.err = errors.New("bus down")

	paid, err := f.svc.ConfirmPayment(ctx, alice, o.ID, "cash")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)

	stored, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, domain.StatusPaid, stored.Status)
}

func TestUpdateDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 10)
	o := placeFor(t, f, alice, 1, 1)

	in := UpdateDeliveryInput{Actor: alice, OrderID: o.ID, Method: "express", Address: "1 Quay St", ContactPhone: "+353871234567"}
	_, err := f.svc.UpdateOrderDelivery(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.ConfirmPayment(ctx, alice, o.ID, "CARD")
	require.NoError(t, err)

	bad := in
	bad.ContactPhone = "call me"
	_, err = f.svc.UpdateOrderDelivery(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidDelivery)

	delivered, err := f.svc.UpdateOrderDelivery(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, delivered.Status)
	assert.Equal(t, domain.DeliveryExpress, delivered.Delivery.Method)
	assert.Equal(t, "1 Quay St", delivered.Delivery.Address)
	assert.Contains(t, f.publisher.names(), domain.EventNameDelivered)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "3.00", 10)
	first := placeFor(t, f, alice, 1, 1)
	f.now = f.now.Add(time.Minute)
	second := placeFor(t, f, alice, 1, 2)

	got, err := f.svc.GetOrderByID(ctx, alice, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = f.svc.GetOrderByID(ctx, bob, first.ID)
	assert.ErrorIs(t, err, identity.ErrUnauthorized)
	_, err = f.svc.GetOrderByID(ctx, manager, first.ID)
	assert.NoError(t, err)

	status, err := f.svc.GetOrderStatus(ctx, alice, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingPayment, status.Status)

	page, err := f.svc.GetOrdersByUser(ctx, alice, "alice", domain.Page{Size: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, second.ID, page.Orders[0].ID)

	_, err = f.svc.GetOrdersByUser(ctx, bob, "alice", domain.Page{})
	assert.ErrorIs(t, err, identity.ErrUnauthorized)
}
