package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	domnotify "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func seedOrder(t *testing.T, orders *memory.OrderRepository, id, user string) *domorder.Order {
	t.Helper()
	p := catalog.Product{ID: 1, Name: "kettle", Category: "kitchen", Price: decimal.RequireFromString("19.90")}
	o, err := domorder.New(id, user, []domorder.Line{domorder.SnapshotLine(p, 2)}, now)
	require.NoError(t, err)
	require.NoError(t, orders.Insert(context.Background(), o))
	return o
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func TestConfirmPaymentPublishesPaidEvent(t *testing.T) {
	ctx := context.Background()
	orders := memory.NewOrderRepository()
	seedOrder(t, orders, "o-1", "alice")
	pub := &capturePublisher{}
	uc := NewConfirmPaymentUseCase(orders, pub, func() time.Time { return now.Add(time.Minute) }, observability.Nop())

	paid, err := uc.Execute(ctx, ConfirmPaymentInput{
		Actor:   identity.Actor{UserID: "alice", Role: identity.RoleUser},
		OrderID: "o-1",
		Method:  "paypal",
	})
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, paid.Status)
	assert.Equal(t, dompay.MethodPayPal, paid.PaymentMethod)
	assert.Equal(t, now.Add(time.Minute), paid.UpdatedAt)

	require.Len(t, pub.events, 1)
	evt, ok := pub.events[0].(domorder.PaidEvent)
	require.True(t, ok)
	assert.Equal(t, "o-1", evt.OrderID)
}

func TestConfirmPaymentErrors(t *testing.T) {
	orders := memory.NewOrderRepository()
	seedOrder(t, orders, "o-1", "alice")
	uc := NewConfirmPaymentUseCase(orders, &capturePublisher{}, nil, nil)
	alice := identity.Actor{UserID: "alice", Role: identity.RoleUser}

	cases := []struct {
		name string
		in   ConfirmPaymentInput
		want error
	}{
		{"missing order", ConfirmPaymentInput{Actor: alice, OrderID: "nope", Method: "CARD"}, domorder.ErrNotFound},
		{"other user", ConfirmPaymentInput{Actor: identity.Actor{UserID: "bob"}, OrderID: "o-1", Method: "CARD"}, identity.ErrUnauthorized},
		{"bad method", ConfirmPaymentInput{Actor: alice, OrderID: "o-1", Method: "BITCOIN"}, dompay.ErrInvalidMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConfirmPaymentHonoursCancelledContext(t *testing.T) {
	orders := memory.NewOrderRepository()
	seedOrder(t, orders, "o-1", "alice")
	uc := NewConfirmPaymentUseCase(orders, &capturePublisher{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := uc.Execute(ctx, ConfirmPaymentInput{Actor: identity.Actor{UserID: "alice"}, OrderID: "o-1", Method: "CARD"})
	assert.ErrorIs(t, err, context.Canceled)

	o, _ := orders.Get(context.Background(), "o-1")
	assert.Equal(t, domorder.StatusPendingPayment, o.Status)
}

type stubRenderer struct{ err error }

func (r stubRenderer) Render(o *domorder.Order) (Document, error) {
	if r.err != nil {
		return Document{}, r.err
	}
	return Document{Subject: "Order " + o.ID, Body: []byte("paid"), ContentType: "text/plain"}, nil
}

type flakySink struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []domnotify.Message
}

func (s *flakySink) Send(_ context.Context, msg domnotify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return domnotify.ErrUndeliverable
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newWorker(orders domorder.Repository, r DocumentRenderer, sink domnotify.Sink, waits *[]time.Duration) *NotificationWorker {
	w := NewNotificationWorker(orders, r, sink, observability.Nop(), WithRetry(3, time.Second))
	w.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return w
}

func TestNotificationRetriesWithLinearBackoff(t *testing.T) {
	orders := memory.NewOrderRepository()
	o := seedOrder(t, orders, "o-1", "alice")
	sink := &flakySink{failures: 2}
	var waits []time.Duration
	w := newWorker(orders, stubRenderer{}, sink, &waits)

	err := w.HandleOrderPaid(context.Background(), domorder.NewPaidEvent(o))
	require.NoError(t, err)
	assert.Equal(t, 3, sink.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
	require.Len(t, sink.sent, 1)
	assert.Equal(t, "alice", sink.sent[0].UserID)
	assert.Equal(t, "Order o-1", sink.sent[0].Subject)
}

func TestNotificationGivesUpAfterMaxAttempts(t *testing.T) {
	orders := memory.NewOrderRepository()
	o := seedOrder(t, orders, "o-1", "alice")
	sink := &flakySink{failures: 10}
	var waits []time.Duration
	w := newWorker(orders, stubRenderer{}, sink, &waits)

	err := w.HandleOrderPaid(context.Background(), domorder.NewPaidEvent(o))
	assert.ErrorIs(t, err, domnotify.ErrUndeliverable)
	assert.Equal(t, 3, sink.calls)
	assert.Len(t, waits, 2)
}

func TestNotificationRenderFailureSkipsSink(t *testing.T) {
	orders := memory.NewOrderRepository()
	o := seedOrder(t, orders, "o-1", "alice")
	sink := &flakySink{}
	var waits []time.Duration
	w := newWorker(orders, stubRenderer{err: errors.New("template broken")}, sink, &waits)

	err := w.HandleOrderPaid(context.Background(), domorder.NewPaidEvent(o))
	assert.Error(t, err)
	assert.Zero(t, sink.calls)
}

func TestNotificationIgnoresOtherEvents(t *testing.T) {
	orders := memory.NewOrderRepository()
	o := seedOrder(t, orders, "o-1", "alice")
	sink := &flakySink{}
	var waits []time.Duration
	w := newWorker(orders, stubRenderer{}, sink, &waits)

	require.NoError(t, w.HandleOrderPaid(context.Background(), domorder.NewPlacedEvent(o)))
	assert.Zero(t, sink.calls)
}
