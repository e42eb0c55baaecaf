package order

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	alice   = identity.Actor{UserID: "alice", Role: identity.RoleUser}
	bob     = identity.Actor{UserID: "bob", Role: identity.RoleUser}
	manager = identity.Actor{UserID: "mia", Role: identity.RoleManager}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("ord-%03d", s.n.Add(1)) }

type fixture struct {
	t         *testing.T
	now       time.Time
	catalog   *memory.Catalog
	ledger    *memory.InventoryLedger
	carts     *memory.CartRepository
	orders    *memory.OrderRepository
	publisher *recordingPublisher
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:         t,
		now:       time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		catalog:   memory.NewCatalog(),
		ledger:    memory.NewInventoryLedger(),
		carts:     memory.NewCartRepository(),
		orders:    memory.NewOrderRepository(),
		publisher: &recordingPublisher{},
	}
	f.svc = NewService(f.deps())
	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Carts:       f.carts,
		Catalog:     f.catalog,
		Ledger:      f.ledger,
		Orders:      f.orders,
		IDGenerator: &seqIDs{},
		Publisher:   f.publisher,
		Clock:       f.clock,
		Telemetry:   observability.Nop(),
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) product(id int64, price string, stock int) {
	f.t.Helper()
	ctx := context.Background()
	require.NoError(f.t, f.catalog.Upsert(ctx, catalog.Product{
		ID: id, Name: fmt.Sprintf("product-%d", id), Category: "misc", Price: decimal.RequireFromString(price),
	}))
	if stock > 0 {
		_, err := f.ledger.Restock(ctx, id, stock)
		require.NoError(f.t, err)
	}
}

func (f *fixture) addToCart(user string, productID int64, qty int) {
	f.t.Helper()
	_, err := f.carts.Mutate(context.Background(), user, func(c *cart.Cart) error {
		_, err := c.AddItem(productID, qty, f.now)
		return err
	})
	require.NoError(f.t, err)
}

func (f *fixture) available(productID int64) int {
	f.t.Helper()
	n, err := f.ledger.Available(context.Background(), productID)
	require.NoError(f.t, err)
	return n
}
