// Package catalogcache fronts the catalog with a short-lived read cache.
package catalogcache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"golang.org/x/sync/singleflight"
)

const peerCatalog = "catalog"

type entry struct {
	product catalog.Product
	expires time.Time
}

// Store caches successful lookups for ttl. Concurrent misses for one product share a
// single backend read. Upserts through the cache invalidate the entry.
type Store struct {
	next catalog.Store
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[int64]entry
	group   singleflight.Group

	lookups observability.Counter // external_requests_total{peer,endpoint,outcome}
}

func New(next catalog.Store, ttl time.Duration, tel observability.Observability) *Store {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Store{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]entry),
		lookups: tel.Metrics().Counter(observability.MExternalRequests),
	}
}

func (s *Store) Product(ctx context.Context, id int64) (catalog.Product, error) {
	if p, ok := s.cached(id); ok {
		s.lookups.Add(1, observability.L("peer", peerCatalog), observability.L("endpoint", "product"), observability.L("outcome", "hit"))
		return p, nil
	}

	v, err, _ := s.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		if p, ok := s.cached(id); ok {
			return p, nil
		}
		p, err := s.next.Product(ctx, id)
		if err != nil {
			return catalog.Product{}, err
		}
		if s.ttl > 0 {
			s.mu.Lock()
			s.entries[id] = entry{product: p, expires: s.now().Add(s.ttl)}
			s.mu.Unlock()
		}
		return p, nil
	})
	outcome := "miss"
	if err != nil {
		outcome = "error"
	}
	s.lookups.Add(1, observability.L("peer", peerCatalog), observability.L("endpoint", "product"), observability.L("outcome", outcome))
	if err != nil {
		return catalog.Product{}, err
	}
	return v.(catalog.Product), nil
}

func (s *Store) Upsert(ctx context.Context, p catalog.Product) error {
	if err := s.next.Upsert(ctx, p); err != nil {
		return err
	}
	s.Invalidate(p.ID)
	return nil
}

// Invalidate drops the cached entry for id.
func (s *Store) Invalidate(id int64) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

func (s *Store) cached(id int64) (catalog.Product, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expires) {
		return catalog.Product{}, false
	}
	return e.product, true
}
