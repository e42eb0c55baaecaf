package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// Envelope is the message body every event is published in.
type Envelope struct {
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Encode wraps e in an Envelope and builds a persistent publishing routed by event name.
func Encode(e domoutbox.Event, now time.Time) (amqp.Publishing, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: encode %s: %w", e.EventName(), err)
	}
	body, err := json.Marshal(Envelope{Event: e.EventName(), OccurredAt: now.UTC(), Payload: payload})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: encode envelope: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  contentTypeJSON,
		MessageId:    uuid.NewString(),
		Timestamp:    now.UTC(),
		Type:         e.EventName(),
		Body:         body,
	}, nil
}

// Publisher sends events to the pool's exchange with the event name as routing key.
type Publisher struct {
	pool *ChannelPool
	now  func() time.Time
}

func NewPublisher(pool *ChannelPool) *Publisher {
	return &Publisher{pool: pool, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, e domoutbox.Event) error {
	msg, err := Encode(e, p.now())
	if err != nil {
		return err
	}
	ch, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.pool.Release(ch)

	if err := ch.PublishWithContext(ctx, p.pool.Exchange(), e.EventName(), false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", e.EventName(), err)
	}
	return nil
}
