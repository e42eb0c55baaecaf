package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const cartService = "cart-service"

const (
	useCaseAdd    = "cart.add_item"
	useCaseUpdate = "cart.update_item"
	useCaseRemove = "cart.remove_item"
	useCaseClear  = "cart.clear"
	useCaseGet    = "cart.get"
)

// LineView is a cart line priced against the current catalog.
type LineView struct {
	ProductID      int64
	Name           string
	Category       string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountPrice  decimal.NullDecimal
	EffectivePrice decimal.Decimal
	Subtotal       decimal.Decimal
	// Unavailable marks a line whose product has left the catalog.
	Unavailable bool
}

type View struct {
	UserID string
	Lines  []LineView
	Total  decimal.Decimal
}

// Service runs cart mutations for the calling user.
type Service struct {
	carts   domcart.Repository
	catalog catalog.Lookup
	ledger  inventory.Ledger
	clock   application.Clock
	in      application.Instrument
}

func NewService(
	carts domcart.Repository,
	lookup catalog.Lookup,
	ledger inventory.Ledger,
	clock application.Clock,
	tel observability.Observability,
) *Service {
	return &Service{
		carts:   carts,
		catalog: lookup,
		ledger:  ledger,
		clock:   clock,
		in:      application.NewInstrument(cartService, tel),
	}
}

// AddItem puts quantity units of productID in the caller's cart. The resulting line may not
// exceed what is currently available; stock is only reserved when the order is placed.
func (s *Service) AddItem(ctx context.Context, actor identity.Actor, productID int64, quantity int) (_ *View, err error) {
	ctx, run := s.in.Begin(ctx, useCaseAdd, "AddCartItem",
		attribute.Int64("cart.product_id", productID),
		attribute.Int("cart.quantity", quantity),
	)
	defer func() { run.End(err) }()

	if err := s.precheck(ctx, run, actor, quantity); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Product(ctx, productID); err != nil {
		run.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, err
	}

	c, err := s.carts.Mutate(ctx, actor.UserID, func(c *domcart.Cart) error {
		next, err := c.AddItem(productID, quantity, s.clock.Now())
		if err != nil {
			return err
		}
		return s.checkStock(ctx, productID, next)
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return s.view(ctx, c), nil
}

// UpdateItem sets the quantity of a product already in the cart.
func (s *Service) UpdateItem(ctx context.Context, actor identity.Actor, productID int64, quantity int) (_ *View, err error) {
	ctx, run := s.in.Begin(ctx, useCaseUpdate, "UpdateCartItem",
		attribute.Int64("cart.product_id", productID),
		attribute.Int("cart.quantity", quantity),
	)
	defer func() { run.End(err) }()

	if err := s.precheck(ctx, run, actor, quantity); err != nil {
		return nil, err
	}

	c, err := s.carts.Mutate(ctx, actor.UserID, func(c *domcart.Cart) error {
		if err := c.UpdateItem(productID, quantity, s.clock.Now()); err != nil {
			return err
		}
		return s.checkStock(ctx, productID, quantity)
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return s.view(ctx, c), nil
}

func (s *Service) RemoveItem(ctx context.Context, actor identity.Actor, productID int64) (_ *View, err error) {
	ctx, run := s.in.Begin(ctx, useCaseRemove, "RemoveCartItem",
		attribute.Int64("cart.product_id", productID),
	)
	defer func() { run.End(err) }()

	if err := s.precheck(ctx, run, actor, 1); err != nil {
		return nil, err
	}
	c, err := s.carts.Mutate(ctx, actor.UserID, func(c *domcart.Cart) error {
		return c.RemoveItem(productID, s.clock.Now())
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return nil, err
	}
	return s.view(ctx, c), nil
}

// Clear empties the caller's cart. An already empty cart is an error.
func (s *Service) Clear(ctx context.Context, actor identity.Actor) (err error) {
	ctx, run := s.in.Begin(ctx, useCaseClear, "ClearCart")
	defer func() { run.End(err) }()

	if err := s.precheck(ctx, run, actor, 1); err != nil {
		return err
	}
	_, err = s.carts.Mutate(ctx, actor.UserID, func(c *domcart.Cart) error {
		return c.Clear(s.clock.Now())
	})
	if err != nil {
		run.Fail(failureStatus(err))
		return err
	}
	return nil
}

// Get returns the caller's cart priced with effective prices.
func (s *Service) Get(ctx context.Context, actor identity.Actor) (_ *View, err error) {
	ctx, run := s.in.Begin(ctx, useCaseGet, "GetCart")
	defer func() { run.End(err) }()

	if err := s.precheck(ctx, run, actor, 1); err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, actor.UserID)
	if err != nil {
		run.Fail("CART_LOOKUP_FAILED")
		return nil, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
	v := s.view(ctx, c)
	run.Note(observability.F("cart_lines", len(v.Lines)))
	return v, nil
}

func (s *Service) precheck(ctx context.Context, run *application.Run, actor identity.Actor, quantity int) error {
	if actor.UserID == "" {
		run.Fail("UNAUTHORIZED")
		return identity.ErrUnauthorized
	}
	if quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return domcart.ErrInvalidQuantity
	}
	return run.Guard(ctx)
}

func (s *Service) checkStock(ctx context.Context, productID int64, wanted int) error {
	available, err := s.ledger.Available(ctx, productID)
	if err != nil {
		return err
	}
	if wanted > available {
		return &inventory.InsufficientStockError{ProductID: productID, Requested: wanted, Available: available}
	}
	return nil
}

func (s *Service) view(ctx context.Context, c *domcart.Cart) *View {
	v := &View{UserID: c.UserID, Lines: make([]LineView, 0, len(c.Lines))}
	prices := make(map[int64]decimal.Decimal, len(c.Lines))
	for _, l := range c.Lines {
		lv := LineView{ProductID: l.ProductID, Quantity: l.Quantity}
		p, err := s.catalog.Product(ctx, l.ProductID)
		if err != nil {
			lv.Unavailable = true
			prices[l.ProductID] = decimal.Zero
		} else {
			lv.Name, lv.Category = p.Name, p.Category
			lv.UnitPrice, lv.DiscountPrice = p.Price, p.DiscountPrice
			lv.EffectivePrice = p.EffectivePrice()
			prices[l.ProductID] = lv.EffectivePrice
		}
		lv.Subtotal = lv.EffectivePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		v.Lines = append(v.Lines, lv)
	}
	v.Total = c.Total(func(id int64) decimal.Decimal { return prices[id] })
	return v
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, domcart.ErrInvalidQuantity):
		return "QUANTITY_INVALID"
	case errors.Is(err, domcart.ErrLineNotFound):
		return "LINE_NOT_FOUND"
	case errors.Is(err, domcart.ErrEmptyCart):
		return "CART_EMPTY"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, inventory.ErrNotFound):
		return "STOCK_NOT_FOUND"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "CART_UPDATE_FAILED"
	}
}
