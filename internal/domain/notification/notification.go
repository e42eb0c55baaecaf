package notification

import (
	"context"
	"errors"
)

var ErrUndeliverable = errors.New("notification: undeliverable")

// Message is a document addressed to a user about one of their orders.
type Message struct {
	UserID      string
	OrderID     string
	Subject     string
	Document    []byte
	ContentType string
}

// Sink delivers messages to users.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}
