package order

import (
	"context"
	"math"
	"slices"
	"time"
)

// MaxUpdateAttempts bounds how often Update re-reads an order after losing a version race.
const MaxUpdateAttempts = 8

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a zero-based page of results.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds. Number is capped so that Offset cannot overflow.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if limit := math.MaxInt/p.Size - 1; p.Number > limit {
		p.Number = limit
	}
	return p
}

func (p Page) Offset() int { return p.Number * p.Size }

type PageResult struct {
	Orders []*Order
	Total  int
	Page   Page
}

// Filter narrows Find. Zero values match everything.
type Filter struct {
	Statuses []Status
	// CreatedFrom is inclusive, CreatedBefore exclusive.
	CreatedFrom   time.Time
	CreatedBefore time.Time
}

func (f Filter) Match(o *Order) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
		return false
	}
	if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !o.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	return true
}

// Repository persists orders. Orders are never deleted.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// Update loads the order, applies fn and stores the result if the version is unchanged.
	// On a version conflict it reloads and calls fn again, so fn must be free of side effects.
	Update(ctx context.Context, id string, fn func(*Order) error) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string, page Page) (PageResult, error)
	Find(ctx context.Context, f Filter) ([]*Order, error)
}
