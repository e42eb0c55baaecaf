package inventory

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// InsufficientStockError names the product that could not cover a reservation.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Ledger holds the available quantity per product, already net of reservations.
//
// Reserve is atomic per product: concurrent reservations never drive a count negative.
// Release adds back a quantity that was previously reserved and does not fail for it.
type Ledger interface {
	Reserve(ctx context.Context, productID int64, quantity int) error
	Release(ctx context.Context, productID int64, quantity int) error
	Available(ctx context.Context, productID int64) (int, error)
	// Restock adds quantity, registering the product when it is unknown. Zero only registers.
	Restock(ctx context.Context, productID int64, quantity int) (int, error)
}

// Line is a product quantity pair to reserve or release.
type Line struct {
	ProductID int64
	Quantity  int
}

// ValidQuantity reports ErrInvalidQuantity for non-positive quantities.
func ValidQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
