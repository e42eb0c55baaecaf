package rabbitmq

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

const relayService = "event-relay"

// Relay forwards events from the in-process bus to the broker.
// Broker failures are logged and never reach the code that raised the event.
type Relay struct {
	publisher domoutbox.Publisher
	in        application.Instrument
}

func NewRelay(publisher domoutbox.Publisher, tel observability.Observability) *Relay {
	return &Relay{publisher: publisher, in: application.NewInstrument(relayService, tel)}
}

// Start subscribes the relay to each of names.
func (r *Relay) Start(subscriber domoutbox.Subscriber, wrap domoutbox.Middleware, names ...string) {
	if subscriber == nil || r.publisher == nil {
		return
	}
	h := domoutbox.Chain(r.Forward, wrap)
	for _, name := range names {
		subscriber.Subscribe(name, h)
	}
}

func (r *Relay) Forward(ctx context.Context, e domoutbox.Event) error {
	if err := r.in.Publish(ctx, r.publisher, e); err != nil {
		r.in.Logger().Warn("relay_publish_failed",
			observability.F("event", e.EventName()),
			observability.Err(err),
		)
		return err
	}
	return nil
}
