package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrPoolClosed = errors.New("rabbitmq: channel pool closed")

// ChannelPool shares a fixed set of channels over one connection.
// Every channel declares the topic exchange events are published to.
type ChannelPool struct {
	conn     *amqp.Connection
	channels chan *amqp.Channel
	exchange string

	mu     sync.Mutex
	closed bool
	log    observability.Logger
}

func NewChannelPool(url, exchange string, size int, log observability.Logger) (*ChannelPool, error) {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = observability.NopLogger()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: connect: %w", err)
	}

	p := &ChannelPool{
		conn:     conn,
		channels: make(chan *amqp.Channel, size),
		exchange: exchange,
		log:      log.With(observability.F("component", "rabbitmq")),
	}
	for i := 0; i < size; i++ {
		ch, err := p.open()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("rabbitmq: open channel %d: %w", i, err)
		}
		p.channels <- ch
	}
	p.log.Info("channel_pool_ready", observability.F("size", size), observability.F("exchange", exchange))
	return p, nil
}

func (p *ChannelPool) open() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	return ch, nil
}

// Acquire waits for a free channel, reopening it if the broker closed it meanwhile.
func (p *ChannelPool) Acquire(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if !ch.IsClosed() {
			return ch, nil
		}
		fresh, err := p.open()
		if err != nil {
			// Keep the slot so the pool does not shrink.
			p.Release(ch)
			return nil, fmt.Errorf("rabbitmq: reopen channel: %w", err)
		}
		return fresh, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release hands ch back. Closed channels are kept as placeholders and reopened on the next Acquire.
func (p *ChannelPool) Release(ch *amqp.Channel) {
	if ch == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		_ = ch.Close()
	}
}

func (p *ChannelPool) Exchange() string { return p.exchange }

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.channels)
	for ch := range p.channels {
		_ = ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.log.Info("channel_pool_closed")
}
