package inventory

import "time"

const (
	EventNameRestocked = "inventory.restocked"
	EventNameLowStock  = "inventory.low_stock"
)

// RestockedEvent records stock added by an administrator.
type RestockedEvent struct {
	ProductID int64     `json:"product_id"`
	Added     int       `json:"added"`
	Available int       `json:"available"`
	At        time.Time `json:"at"`
}

func (RestockedEvent) EventName() string { return EventNameRestocked }

// LowStockEvent is raised when a placement leaves a product at or below its threshold.
type LowStockEvent struct {
	ProductID int64     `json:"product_id"`
	Available int       `json:"available"`
	Threshold int       `json:"threshold"`
	At        time.Time `json:"at"`
}

func (LowStockEvent) EventName() string { return EventNameLowStock }
