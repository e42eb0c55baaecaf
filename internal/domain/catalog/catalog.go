package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("catalog: product not found")
	ErrInvalidProduct = errors.New("catalog: invalid product")
)

// Product is the catalog view the ordering core reads. Stock lives in the inventory ledger.
type Product struct {
	ID            int64
	Name          string
	Category      string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
	UpdatedAt     time.Time
}

// EffectivePrice is the discount price when one is set and lower than the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	return Effective(p.Price, p.DiscountPrice)
}

// Effective picks the price a buyer pays for a list price and an optional discount.
func Effective(price decimal.Decimal, discount decimal.NullDecimal) decimal.Decimal {
	if discount.Valid && discount.Decimal.LessThan(price) {
		return discount.Decimal
	}
	return price
}

// Validate checks the fields an administrator supplies when registering a product.
func (p Product) Validate() error {
	switch {
	case p.ID <= 0:
		return errors.Join(ErrInvalidProduct, errors.New("id must be positive"))
	case strings.TrimSpace(p.Name) == "":
		return errors.Join(ErrInvalidProduct, errors.New("name is required"))
	case !p.Price.IsPositive():
		return errors.Join(ErrInvalidProduct, errors.New("price must be positive"))
	case p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsNegative():
		return errors.Join(ErrInvalidProduct, errors.New("discount price must not be negative"))
	}
	return nil
}

// Lookup resolves products by id.
type Lookup interface {
	Product(ctx context.Context, id int64) (Product, error)
}

// Store is the writable catalog used by administration and seeding.
type Store interface {
	Lookup
	Upsert(ctx context.Context, p Product) error
}
