package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaperCancelsExpiredPendingOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "1.00", 10)
	stale := placeFor(t, f, alice, 1, 3)
	f.now = f.now.Add(2 * time.Hour)
	fresh := placeFor(t, f, bob, 1, 2)
	require.Equal(t, 5, f.available(1))

	reaper := NewReaperWorker(f.orders, f.svc.Canceller(), time.Hour, time.Minute, f.clock, observability.Nop())
	n, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := f.orders.Get(ctx, stale.ID)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	got, _ = f.orders.Get(ctx, fresh.ID)
	assert.Equal(t, domain.StatusPendingPayment, got.Status)
	assert.Equal(t, 8, f.available(1))

	n, err = reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type scriptedCanceller struct {
	mu    sync.Mutex
	calls []CancelOrderInput
	errs  map[string]error
}

func (c *scriptedCanceller) Execute(_ context.Context, cmd CancelOrderInput) (*domain.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, cmd)
	if err := c.errs[cmd.OrderID]; err != nil {
		return nil, err
	}
	return &domain.Order{ID: cmd.OrderID, Status: domain.StatusCancelled}, nil
}

func TestReaperCountsOnlySuccessfulCancels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "1.00", 10)
	raced := placeFor(t, f, alice, 1, 1)
	broken := placeFor(t, f, bob, 1, 1)
	placeFor(t, f, manager, 1, 1)
	f.now = f.now.Add(2 * time.Hour)

	canceller := &scriptedCanceller{errs: map[string]error{
		raced.ID:  domain.ErrInvalidStateTransition,
		broken.ID: errors.New("ledger down"),
	}}
	reaper := NewReaperWorker(f.orders, canceller, time.Hour, time.Minute, f.clock, observability.Nop())

	n, err := reaper.Sweep(ctx)
	assert.Equal(t, 1, n)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidStateTransition)

	require.Len(t, canceller.calls, 3)
	for _, call := range canceller.calls {
		assert.Equal(t, identity.System, call.Actor)
	}
}

func TestFulfillmentAdvancesOneStepPerSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(1, "1.00", 10)
	o := placeFor(t, f, alice, 1, 1)
	pending := placeFor(t, f, bob, 1, 1)
	_, err := f.svc.ConfirmPayment(ctx, alice, o.ID, "CARD")
	require.NoError(t, err)

	w := NewFulfillmentWorker(f.orders, f.publisher, time.Minute, f.clock, observability.Nop())

	n, err := w.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, domain.StatusInTransit, got.Status)

	n, err = w.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, _ = f.orders.Get(ctx, o.ID)
	assert.Equal(t, domain.StatusDelivered, got.Status)

	n, err = w.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	untouched, _ := f.orders.Get(ctx, pending.ID)
	assert.Equal(t, domain.StatusPendingPayment, untouched.Status)
	assert.Contains(t, f.publisher.names(), domain.EventNameInTransit)
	assert.Contains(t, f.publisher.names(), domain.EventNameDelivered)
}

func TestWorkersStopWithContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReaperWorker(f.orders, f.svc.Canceller(), time.Hour, time.Millisecond, f.clock, nil).Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
