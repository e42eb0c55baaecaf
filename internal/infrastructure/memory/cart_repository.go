package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
)

// CartRepository serialises mutations per user; different users never wait on each other.
type CartRepository struct {
	locks sync.Map // userID -> *sync.Mutex

	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]*domain.Cart)}
}

func (r *CartRepository) Get(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.carts[userID]; ok {
		return c.Clone(), nil
	}
	return domain.New(userID), nil
}

func (r *CartRepository) Mutate(ctx context.Context, userID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	current.Version++

	r.mu.Lock()
	r.carts[userID] = current.Clone()
	r.mu.Unlock()
	return current, nil
}

func (r *CartRepository) userLock(userID string) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
