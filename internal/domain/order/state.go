package order

import (
	"fmt"
	"strings"
)

// Status is the lifecycle position of an order.
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// Event is a trigger that moves an order between statuses.
type Event string

const (
	EventConfirmPayment Event = "confirm_payment"
	EventCancel         Event = "cancel"
	EventUpdateDelivery Event = "update_delivery"
	EventDispatch       Event = "dispatch"
	EventArrive         Event = "arrive"
)

// transitions is the only place legal status changes are defined.
var transitions = map[Status]map[Event]Status{
	StatusPendingPayment: {
		EventConfirmPayment: StatusPaid,
		EventCancel:         StatusCancelled,
	},
	StatusPaid: {
		EventUpdateDelivery: StatusDelivered,
		EventDispatch:       StatusInTransit,
	},
	StatusInTransit: {
		EventArrive: StatusDelivered,
	},
}

// Next returns the status event leads to from s.
func (s Status) Next(e Event) (Status, error) {
	if to, ok := transitions[s][e]; ok {
		return to, nil
	}
	return "", &TransitionError{From: s, Event: e}
}

// Can reports whether event e is legal from s.
func (s Status) Can(e Event) bool {
	_, err := s.Next(e)
	return err == nil
}

// IsTerminal reports whether no further transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CountsAsSale reports whether an order in s contributes to revenue.
func (s Status) CountsAsSale() bool {
	switch s {
	case StatusPaid, StatusInTransit, StatusDelivered:
		return true
	}
	return false
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusPendingPayment, StatusPaid, StatusInTransit, StatusDelivered, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("order: unknown status %q", raw)
}

// TransitionError is returned for an event that is illegal in the current status.
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order: cannot %s an order in status %s", e.Event, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }
