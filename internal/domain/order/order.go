package order

import (
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: conflict")
	ErrNoLines                = errors.New("order: an order needs at least one line")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

// Order is an immutable snapshot of a purchase plus its mutable status.
type Order struct {
	ID            string
	UserID        string
	Lines         []Line
	Status        Status
	Total         decimal.Decimal
	Delivery      Delivery
	PaymentMethod payment.Method
	CreatedAt     time.Time
	UpdatedAt     time.Time
	// Version increases on every stored change and guards concurrent updates.
	Version int64
}

// New builds an order in PENDING_PAYMENT. The total is computed once here and never again.
func New(id, userID string, lines []Line, now time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrNoLines
		}
	}
	now = now.UTC()
	return &Order{
		ID:        id,
		UserID:    userID,
		Lines:     append([]Line(nil), lines...),
		Status:    StatusPendingPayment,
		Total:     Total(lines),
		Delivery:  Delivery{Method: DeliveryPickup},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ConfirmPayment moves a pending order to PAID. The state is checked before the method.
func (o *Order) ConfirmPayment(rawMethod string, now time.Time) error {
	to, err := o.Status.Next(EventConfirmPayment)
	if err != nil {
		return err
	}
	method, err := payment.ParseMethod(rawMethod)
	if err != nil {
		return err
	}
	o.PaymentMethod = method
	o.apply(to, now)
	return nil
}

func (o *Order) Cancel(now time.Time) error {
	return o.fire(EventCancel, now)
}

// UpdateDelivery stamps delivery details on a paid order and marks it delivered.
func (o *Order) UpdateDelivery(d Delivery, now time.Time) error {
	to, err := o.Status.Next(EventUpdateDelivery)
	if err != nil {
		return err
	}
	o.Delivery = d
	o.apply(to, now)
	return nil
}

func (o *Order) Dispatch(now time.Time) error {
	return o.fire(EventDispatch, now)
}

func (o *Order) Arrive(now time.Time) error {
	return o.fire(EventArrive, now)
}

// ReservedLines returns the product quantities this order holds in the inventory ledger.
func (o *Order) ReservedLines() []inventory.Line {
	out := make([]inventory.Line, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, inventory.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

func (o *Order) fire(e Event, now time.Time) error {
	to, err := o.Status.Next(e)
	if err != nil {
		return err
	}
	o.apply(to, now)
	return nil
}

func (o *Order) apply(to Status, now time.Time) {
	o.Status = to
	o.UpdatedAt = now.UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}
