package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	domnotify "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/sony/gobreaker/v2"
)

var ErrSinkUnavailable = errors.New("notify: sink unavailable")

const peerSink = "notification-sink"

type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// BreakerSink stops calling a failing sink until it has had time to recover.
type BreakerSink struct {
	next    domnotify.Sink
	cb      *gobreaker.CircuitBreaker[struct{}]
	calls   observability.Counter
	latency observability.Histogram
}

func NewBreakerSink(next domnotify.Sink, s BreakerSettings, tel observability.Observability) *BreakerSink {
	if tel == nil {
		tel = observability.Nop()
	}
	if s.Failures == 0 {
		s.Failures = 5
	}
	log := tel.Logger().With(observability.F("component", "notify"))
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        peerSink,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit_state_changed",
				observability.F("breaker", name),
				observability.F("from", from.String()),
				observability.F("to", to.String()),
			)
		},
	})
	return &BreakerSink{
		next:    next,
		cb:      cb,
		calls:   tel.Metrics().Counter(observability.MExternalRequests),
		latency: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

func (b *BreakerSink) Send(ctx context.Context, msg domnotify.Message) error {
	start := time.Now()
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})

	outcome := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
		err = fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	case err != nil:
		outcome = "error"
	}
	b.calls.Add(1, observability.L("peer", peerSink), observability.L("endpoint", "send"), observability.L("outcome", outcome))
	b.latency.Observe(time.Since(start).Seconds(), observability.L("peer", peerSink), observability.L("endpoint", "send"))
	return err
}

// State reports the breaker state, for health output.
func (b *BreakerSink) State() string { return b.cb.State().String() }
