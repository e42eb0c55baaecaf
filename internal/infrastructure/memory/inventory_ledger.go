package memory

import (
	"context"
	"sync"
	"sync/atomic"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
)

// InventoryLedger keeps one atomic counter per product. Reservations on different products never
// contend, and reservations on the same product serialise through compare-and-swap.
type InventoryLedger struct {
	stock sync.Map // int64 -> *atomic.Int64
}

func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{}
}

func (l *InventoryLedger) counter(productID int64) (*atomic.Int64, bool) {
	v, ok := l.stock.Load(productID)
	if !ok {
		return nil, false
	}
	return v.(*atomic.Int64), true
}

func (l *InventoryLedger) Reserve(ctx context.Context, productID int64, quantity int) error {
	if err := domain.ValidQuantity(quantity); err != nil {
		return err
	}
	c, ok := l.counter(productID)
	if !ok {
		return domain.ErrNotFound
	}
	want := int64(quantity)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := c.Load()
		if cur < want {
			return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: int(cur)}
		}
		if c.CompareAndSwap(cur, cur-want) {
			return nil
		}
	}
}

func (l *InventoryLedger) Release(_ context.Context, productID int64, quantity int) error {
	if err := domain.ValidQuantity(quantity); err != nil {
		return err
	}
	c, ok := l.counter(productID)
	if !ok {
		return domain.ErrNotFound
	}
	c.Add(int64(quantity))
	return nil
}

func (l *InventoryLedger) Available(_ context.Context, productID int64) (int, error) {
	c, ok := l.counter(productID)
	if !ok {
		return 0, domain.ErrNotFound
	}
	return int(c.Load()), nil
}

func (l *InventoryLedger) Restock(_ context.Context, productID int64, quantity int) (int, error) {
	if quantity < 0 {
		return 0, domain.ErrInvalidQuantity
	}
	v, _ := l.stock.LoadOrStore(productID, new(atomic.Int64))
	return int(v.(*atomic.Int64).Add(int64(quantity))), nil
}
