package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
)

type Catalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[int64]domain.Product)}
}

func (c *Catalog) Product(_ context.Context, id int64) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (c *Catalog) Upsert(_ context.Context, p domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products[p.ID] = p
	return nil
}
