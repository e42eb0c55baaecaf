// Package outbox defines how domain events leave the code that raised them.
package outbox

import "context"

// Event is a fact that already happened. EventName doubles as the routing key.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

// Middleware decorates a Handler, for example with an event-scoped logger.
type Middleware func(Handler) Handler

// Chain applies mws so that the first one runs outermost. Nil entries are skipped.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Publisher hands events to whoever delivers them. Publishing never rolls back
// the state change that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
