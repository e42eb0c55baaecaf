package order

import (
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
)

type IDGenerator interface {
	NewID() string
}

const (
	orderService  = "order-service"
	workerService = "order-worker"
)

var (
	ErrNotFound     = domain.ErrNotFound
	ErrConflict     = domain.ErrConflict
	ErrStockRelease = errors.New("order: stock release failed")
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
}

// failureStatus maps an error to the status code recorded on use_case_done.
func failureStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "INVALID_STATE_TRANSITION"
	case errors.Is(err, domain.ErrConflict):
		return "ORDER_CONFLICT"
	case errors.Is(err, domain.ErrInvalidDelivery):
		return "DELIVERY_INVALID"
	case errors.Is(err, payment.ErrInvalidMethod):
		return "PAYMENT_METHOD_INVALID"
	case errors.Is(err, identity.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, cart.ErrEmptyCart):
		return "CART_EMPTY"
	case errors.Is(err, cart.ErrConflict):
		return "CART_CHANGED"
	case errors.Is(err, catalog.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	default:
		return "ORDER_OPERATION_FAILED"
	}
}

// isDomainError reports errors that already carry a meaningful sentinel for callers.
func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidStateTransition) ||
		errors.Is(err, domain.ErrInvalidDelivery) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, payment.ErrInvalidMethod) ||
		errors.Is(err, identity.ErrUnauthorized)
}
