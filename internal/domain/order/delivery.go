package order

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrInvalidDelivery = errors.New("order: invalid delivery details")

type DeliveryMethod string

const (
	DeliveryPickup       DeliveryMethod = "PICKUP"
	DeliveryStandard     DeliveryMethod = "STANDARD"
	DeliveryExpress      DeliveryMethod = "EXPRESS"
	DeliverySelfDelivery DeliveryMethod = "SELF_DELIVERY"
)

const maxAddressLength = 100

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Delivery records where and how an order was handed over.
type Delivery struct {
	Method       DeliveryMethod `json:"method"`
	Address      string         `json:"address"`
	ContactPhone string         `json:"contact_phone"`
}

// NewDelivery normalises and validates delivery details. An empty method means PICKUP.
func NewDelivery(method, address, phone string) (Delivery, error) {
	m := DeliveryMethod(strings.ToUpper(strings.TrimSpace(method)))
	if m == "" {
		m = DeliveryPickup
	}
	switch m {
	case DeliveryPickup, DeliveryStandard, DeliveryExpress, DeliverySelfDelivery:
	default:
		return Delivery{}, fmt.Errorf("%w: unknown method %q", ErrInvalidDelivery, method)
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return Delivery{}, fmt.Errorf("%w: address is required", ErrInvalidDelivery)
	}
	if utf8.RuneCountInString(address) > maxAddressLength {
		return Delivery{}, fmt.Errorf("%w: address exceeds %d characters", ErrInvalidDelivery, maxAddressLength)
	}

	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return Delivery{}, fmt.Errorf("%w: contact phone %q", ErrInvalidDelivery, phone)
	}
	return Delivery{Method: m, Address: address, ContactPhone: phone}, nil
}
