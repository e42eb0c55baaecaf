package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart: cart is empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrLineNotFound    = errors.New("cart: product not in cart")
	ErrConflict        = errors.New("cart: concurrent modification")
)

// Line is one product in a cart. Products are referenced by id only.
type Line struct {
	ProductID int64
	Quantity  int
}

// Cart is a user's mutable basket. Lines are unique per product and kept sorted by product id.
type Cart struct {
	UserID    string
	Lines     []Line
	UpdatedAt time.Time
	Version   int64
}

// New returns an empty cart for userID.
func New(userID string) *Cart {
	return &Cart{UserID: userID}
}

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Quantity returns the quantity held for productID, zero when absent.
func (c *Cart) Quantity(productID int64) int {
	if i, ok := c.find(productID); ok {
		return c.Lines[i].Quantity
	}
	return 0
}

// AddItem increments an existing line or appends a new one and returns the resulting quantity.
func (c *Cart) AddItem(productID int64, quantity int, now time.Time) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	i, ok := c.find(productID)
	if ok {
		c.Lines[i].Quantity += quantity
	} else {
		c.Lines = append(c.Lines, Line{})
		copy(c.Lines[i+1:], c.Lines[i:])
		c.Lines[i] = Line{ProductID: productID, Quantity: quantity}
	}
	c.UpdatedAt = now
	return c.Lines[i].Quantity, nil
}

// UpdateItem sets the quantity of an existing line.
func (c *Cart) UpdateItem(productID int64, quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i, ok := c.find(productID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrLineNotFound, productID)
	}
	c.Lines[i].Quantity = quantity
	c.UpdatedAt = now
	return nil
}

func (c *Cart) RemoveItem(productID int64, now time.Time) error {
	i, ok := c.find(productID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrLineNotFound, productID)
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.UpdatedAt = now
	return nil
}

// Clear empties the cart. Clearing an empty cart is rejected.
func (c *Cart) Clear(now time.Time) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	c.Lines = nil
	c.UpdatedAt = now
	return nil
}

// Consume removes ordered quantities from the cart. A line that no longer holds at least the
// ordered quantity means the cart changed underneath the caller.
func (c *Cart) Consume(ordered []Line, now time.Time) error {
	next := c.Clone()
	for _, o := range ordered {
		i, ok := next.find(o.ProductID)
		if !ok || next.Lines[i].Quantity < o.Quantity {
			return fmt.Errorf("%w: product %d", ErrConflict, o.ProductID)
		}
		next.Lines[i].Quantity -= o.Quantity
		if next.Lines[i].Quantity == 0 {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
		}
	}
	c.Lines = next.Lines
	c.UpdatedAt = now
	return nil
}

// Total sums quantity times the unit price priceOf reports for every line.
func (c *Cart) Total(priceOf func(productID int64) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(priceOf(l.ProductID).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Lines = append([]Line(nil), c.Lines...)
	return &clone
}

// find returns the index of productID or the position it would be inserted at.
func (c *Cart) find(productID int64) (int, bool) {
	i := sort.Search(len(c.Lines), func(i int) bool { return c.Lines[i].ProductID >= productID })
	return i, i < len(c.Lines) && c.Lines[i].ProductID == productID
}

// Repository persists carts.
type Repository interface {
	// Get returns the user's cart, or an empty one when none exists yet.
	Get(ctx context.Context, userID string) (*Cart, error)
	// Mutate applies fn to the user's cart as one atomic read-modify-write.
	// The cart is only saved when fn returns nil.
	Mutate(ctx context.Context, userID string, fn func(*Cart) error) (*Cart, error)
}
