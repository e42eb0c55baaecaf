package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderReservesSnapshotsAndClearsCart(t *testing.T) {
	f := newFixture(t)
	f.product(1, "10.00", 5)
	f.product(2, "4.50", 3)
	f.addToCart("alice", 1, 2)
	f.addToCart("alice", 2, 1)

	o, err := f.svc.PlaceOrder(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingPayment, o.Status)
	assert.Equal(t, "alice", o.UserID)
	assert.True(t, decimal.RequireFromString("24.50").Equal(o.Total), o.Total.String())
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "product-1", o.Lines[0].ProductName)

	assert.Equal(t, 3, f.available(1))
	assert.Equal(t, 2, f.available(2))

	c, _ := f.carts.Get(context.Background(), "alice")
	assert.True(t, c.IsEmpty())

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Total, stored.Total)
	assert.Equal(t, []string{domain.EventNamePlaced}, f.publisher.names())
}

func TestPlaceOrderInsufficientStockLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	f.product(1, "10.00", 2)
	f.addToCart("alice", 1, 3)

	_, err := f.svc.PlaceOrder(context.Background(), alice)

	var short *inventory.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.EqualValues(t, 1, short.ProductID)
	assert.Equal(t, 2, f.available(1))

	c, _ := f.carts.Get(context.Background(), "alice")
	assert.Equal(t, 3, c.Quantity(1))
	page, _ := f.orders.ListByUser(context.Background(), "alice", domain.Page{})
	assert.Zero(t, page.Total)
	assert.Empty(t, f.publisher.names())
}

func TestPlaceOrderReleasesEarlierReservationsOnPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.product(1, "1.00", 10)
	f.product(2, "1.00", 1)
	f.addToCart("alice", 1, 4)
	f.addToCart("alice", 2, 2)

	_, err := f.svc.PlaceOrder(context.Background(), alice)

	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 10, f.available(1))
	assert.Equal(t, 1, f.available(2))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), alice)
	assert.ErrorIs(t, err, cart.ErrEmptyCart)

	_, err = f.svc.PlaceOrder(context.Background(), identity.Actor{})
	assert.ErrorIs(t, err, identity.ErrUnauthorized)
}

func TestPlaceOrderMissingProduct(t *testing.T) {
	f := newFixture(t)
	f.product(1, "1.00", 10)
	f.addToCart("alice", 1, 1)
	f.addToCart("alice", 99, 1)

	_, err := f.svc.PlaceOrder(context.Background(), alice)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, 10, f.available(1))
}

type failingCarts struct {
	cart.Repository
}

func (failingCarts) Mutate(context.Context, string, func(*cart.Cart) error) (*cart.Cart, error) {
	return nil, errors.New("cart store down")
}

// racingCarts removes a product from the cart just before the placement consumes it,
// the way a second browser tab would.
type racingCarts struct {
	cart.Repository
	productID int64
	once      sync.Once
}

func (r *racingCarts) Mutate(ctx context.Context, userID string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	r.once.Do(func() {
		_, _ = r.Repository.Mutate(ctx, userID, func(c *cart.Cart) error {
			return c.RemoveItem(r.productID, time.Now())
		})
	})
	return r.Repository.Mutate(ctx, userID, fn)
}

type failingOrders struct {
	domain.Repository
}

func (failingOrders) Insert(context.Context, *domain.Order) error {
	return errors.New("order store down")
}

func TestPlaceOrderWritesNothingWhenCartCannotBeCleared(t *testing.T) {
	f := newFixture(t)
	f.product(1, "2.00", 5)
	f.addToCart("alice", 1, 2)

	deps := f.deps()
	deps.Carts = failingCarts{Repository: f.carts}
	svc := NewService(deps)

	_, err := svc.PlaceOrder(context.Background(), alice)
	require.Error(t, err)

	assert.Equal(t, 5, f.available(1))
	orders, err := f.orders.Find(context.Background(), domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.publisher.names())
}

func TestPlaceOrderLeavesNoCancelledOrderWhenCartChanges(t *testing.T) {
	f := newFixture(t)
	f.product(1, "2.00", 5)
	f.product(2, "3.00", 5)
	f.addToCart("alice", 1, 2)
	f.addToCart("alice", 2, 1)

	deps := f.deps()
	deps.Carts = &racingCarts{Repository: f.carts, productID: 1}
	svc := NewService(deps)

	_, err := svc.PlaceOrder(context.Background(), alice)
	require.ErrorIs(t, err, cart.ErrConflict)

	assert.Equal(t, 5, f.available(1))
	assert.Equal(t, 5, f.available(2))
	orders, err := f.orders.Find(context.Background(), domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	c, err := f.carts.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Quantity(1))
	assert.Equal(t, 1, c.Quantity(2))
}

func TestPlaceOrderRestoresCartWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	f.product(1, "2.00", 5)
	f.product(2, "3.00", 5)
	f.addToCart("alice", 1, 2)
	f.addToCart("alice", 2, 1)

	deps := f.deps()
	deps.Orders = failingOrders{Repository: f.orders}
	svc := NewService(deps)

	_, err := svc.PlaceOrder(context.Background(), alice)
	require.Error(t, err)

	assert.Equal(t, 5, f.available(1))
	assert.Equal(t, 5, f.available(2))
	c, err := f.carts.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Quantity(1))
	assert.Equal(t, 1, c.Quantity(2))
	assert.Empty(t, f.publisher.names())
}

func TestPlaceOrderSucceedsWhenPublishFails(t *testing.T) {
	f := newFixture(t)
	f.product(1, "2.00", 5)
	f.addToCart("alice", 1, 1)
	f.publisher.err = errors.New("bus full")

	o, err := f.svc.PlaceOrder(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingPayment, o.Status)
	assert.Equal(t, 4, f.available(1))
}

func TestConcurrentPlacementsNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.product(1, "1.00", 5)
	const buyers = 12
	for i := 0; i < buyers; i++ {
		f.addToCart(fmt.Sprintf("user-%d", i), 1, 1)
	}

	var placed, short atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := identity.Actor{UserID: fmt.Sprintf("user-%d", i), Role: identity.RoleUser}
			_, err := f.svc.PlaceOrder(context.Background(), actor)
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, inventory.ErrInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 5, placed.Load())
	assert.EqualValues(t, buyers-5, short.Load())
	assert.Equal(t, 0, f.available(1))
}
