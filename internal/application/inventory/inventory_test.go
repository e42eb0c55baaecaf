package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	admin = identity.Actor{UserID: "root", Role: identity.RoleAdmin}
	user  = identity.Actor{UserID: "alice", Role: identity.RoleUser}
)

type eventLog struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (l *eventLog) Publish(_ context.Context, e domoutbox.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func newService() (*Service, *memory.Catalog, *memory.InventoryLedger, *eventLog) {
	store := memory.NewCatalog()
	ledger := memory.NewInventoryLedger()
	events := &eventLog{}
	return NewService(store, ledger, events, func() time.Time { return now }, observability.Nop()), store, ledger, events
}

func kettle() catalog.Product {
	return catalog.Product{ID: 7, Name: "Kettle", Category: "kitchen", Price: decimal.RequireFromString("19.90")}
}

func TestUpsertProductSeedsStock(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newService()

	view, err := svc.UpsertProduct(ctx, UpsertProductInput{Actor: admin, Product: kettle(), InitialStock: 12})
	require.NoError(t, err)
	assert.Equal(t, StockView{ProductID: 7, Available: 12}, view)

	p, err := store.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Kettle", p.Name)
	assert.Equal(t, now, p.UpdatedAt)

	updated := kettle()
	updated.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString("15"))
	view, err = svc.UpsertProduct(ctx, UpsertProductInput{Actor: admin, Product: updated})
	require.NoError(t, err)
	assert.Equal(t, 12, view.Available, "upsert without stock keeps availability")

	p, _ = store.Product(ctx, 7)
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(15)))
}

func TestUpsertProductRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService()

	_, err := svc.UpsertProduct(ctx, UpsertProductInput{Actor: user, Product: kettle()})
	assert.ErrorIs(t, err, identity.ErrUnauthorized)

	bad := kettle()
	bad.Price = decimal.Zero
	_, err = svc.UpsertProduct(ctx, UpsertProductInput{Actor: admin, Product: bad})
	assert.ErrorIs(t, err, catalog.ErrInvalidProduct)

	_, err = svc.UpsertProduct(ctx, UpsertProductInput{Actor: admin, Product: kettle(), InitialStock: -1})
	assert.ErrorIs(t, err, application.ErrValidation)
}

func TestRestock(t *testing.T) {
	ctx := context.Background()
	svc, _, _, events := newService()
	_, err := svc.UpsertProduct(ctx, UpsertProductInput{Actor: admin, Product: kettle(), InitialStock: 2})
	require.NoError(t, err)

	view, err := svc.Restock(ctx, admin, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, view.Available)

	require.Len(t, events.events, 1)
	evt, ok := events.events[0].(dominv.RestockedEvent)
	require.True(t, ok)
	assert.Equal(t, dominv.RestockedEvent{ProductID: 7, Added: 5, Available: 7, At: now}, evt)

	_, err = svc.Restock(ctx, admin, 7, 0)
	assert.ErrorIs(t, err, dominv.ErrInvalidQuantity)
	_, err = svc.Restock(ctx, admin, 99, 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = svc.Restock(ctx, user, 7, 1)
	assert.ErrorIs(t, err, identity.ErrUnauthorized)
}

func TestStockLevel(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService()
	_, err := svc.UpsertProduct(ctx, UpsertProductInput{Actor: admin, Product: kettle()})
	require.NoError(t, err)

	view, err := svc.StockLevel(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, view.Available)

	_, err = svc.StockLevel(ctx, 99)
	assert.ErrorIs(t, err, dominv.ErrNotFound)
}

func TestLowStockWorker(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewInventoryLedger()
	_, err := ledger.Restock(ctx, 1, 2)
	require.NoError(t, err)
	_, err = ledger.Restock(ctx, 2, 50)
	require.NoError(t, err)
	events := &eventLog{}
	w := NewLowStockWorker(ledger, events, 3, func() time.Time { return now }, nil)

	err = w.HandleOrderPlaced(ctx, domorder.PlacedEvent{
		OrderID: "o-1",
		Items:   []domorder.PlacedItem{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, events.events, 1)
	assert.Equal(t, dominv.LowStockEvent{ProductID: 1, Available: 2, Threshold: 3, At: now}, events.events[0])

	err = w.HandleOrderPlaced(ctx, domorder.PlacedEvent{OrderID: "o-2", Items: []domorder.PlacedItem{{ProductID: 404, Quantity: 1}}})
	assert.ErrorIs(t, err, dominv.ErrNotFound)
}
