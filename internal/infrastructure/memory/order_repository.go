package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	stored := order.Clone()
	stored.Version = 1
	r.orders[order.ID] = stored
	order.Version = stored.Version
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return order.Clone(), nil
}

// Update applies fn to a copy and swaps it in only if nobody stored a newer version meanwhile.
func (r *OrderRepository) Update(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error) {
	for attempt := 0; attempt < domain.MaxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		read := current.Version
		if err := fn(current); err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.orders[id].Version == read {
			current.Version = read + 1
			r.orders[id] = current.Clone()
			r.mu.Unlock()
			return current, nil
		}
		r.mu.Unlock()
	}
	return nil, fmt.Errorf("%w: order %s kept changing", domain.ErrConflict, id)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page domain.Page) (domain.PageResult, error) {
	_ = ctx
	page = page.Normalize()

	r.mu.RLock()
	var mine []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			mine = append(mine, o.Clone())
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(mine)
	result := domain.PageResult{Total: len(mine), Page: page}
	from := min(page.Offset(), len(mine))
	to := min(from+page.Size, len(mine))
	result.Orders = mine[from:to]
	return result, nil
}

func (r *OrderRepository) Find(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	var out []*domain.Order
	for _, o := range r.orders {
		if f.Match(o) {
			out = append(out, o.Clone())
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}
