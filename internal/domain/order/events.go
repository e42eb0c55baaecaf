package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventNamePlaced    = "order.placed"
	EventNamePaid      = "order.paid"
	EventNameCancelled = "order.cancelled"
	EventNameInTransit = "order.in_transit"
	EventNameDelivered = "order.delivered"
)

// EventNames lists every lifecycle event an order emits.
var EventNames = []string{
	EventNamePlaced,
	EventNamePaid,
	EventNameCancelled,
	EventNameInTransit,
	EventNameDelivered,
}

// PlacedEvent is emitted once an order has been created and its stock reserved.
type PlacedEvent struct {
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	Total      decimal.Decimal `json:"total"`
	Items      []PlacedItem    `json:"items"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type PlacedItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (PlacedEvent) EventName() string { return EventNamePlaced }

func NewPlacedEvent(o *Order) PlacedEvent {
	items := make([]PlacedItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, PlacedItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return PlacedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Total:      o.Total,
		Items:      items,
		OccurredAt: o.UpdatedAt,
	}
}

// PaidEvent is emitted when payment is confirmed. The notification worker listens to it.
type PaidEvent struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func (PaidEvent) EventName() string { return EventNamePaid }

func NewPaidEvent(o *Order) PaidEvent {
	return PaidEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		PaymentMethod: string(o.PaymentMethod),
		Total:         o.Total,
		OccurredAt:    o.UpdatedAt,
	}
}

// CancelledEvent is emitted after a cancelled order's stock was returned.
type CancelledEvent struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	CancelledBy string    `json:"cancelled_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (CancelledEvent) EventName() string { return EventNameCancelled }

func NewCancelledEvent(o *Order, by string) CancelledEvent {
	return CancelledEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		CancelledBy: by,
		OccurredAt:  o.UpdatedAt,
	}
}

// InTransitEvent is emitted when a paid order leaves the warehouse.
type InTransitEvent struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (InTransitEvent) EventName() string { return EventNameInTransit }

func NewInTransitEvent(o *Order) InTransitEvent {
	return InTransitEvent{OrderID: o.ID, UserID: o.UserID, OccurredAt: o.UpdatedAt}
}

// DeliveredEvent is emitted when an order reaches DELIVERED.
type DeliveredEvent struct {
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Method     DeliveryMethod `json:"method"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (DeliveredEvent) EventName() string { return EventNameDelivered }

func NewDeliveredEvent(o *Order) DeliveredEvent {
	return DeliveredEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Method:     o.Delivery.Method,
		OccurredAt: o.UpdatedAt,
	}
}
