package order

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

const (
	useCaseReap    = "order.reap_expired"
	useCaseFulfill = "order.advance_fulfillment"
)

// ReaperWorker cancels orders that stayed in PENDING_PAYMENT longer than the TTL,
// which returns their reserved stock.
type ReaperWorker struct {
	orders   domain.Repository
	cancel   application.UseCase[CancelOrderInput, *domain.Order]
	ttl      time.Duration
	interval time.Duration
	clock    application.Clock
	in       application.Instrument
}

func NewReaperWorker(orders domain.Repository, cancel application.UseCase[CancelOrderInput, *domain.Order], ttl, interval time.Duration, clock application.Clock, tel observability.Observability) *ReaperWorker {
	return &ReaperWorker{
		orders:   orders,
		cancel:   cancel,
		ttl:      ttl,
		interval: interval,
		clock:    clock,
		in:       application.NewInstrument(workerService, tel),
	}
}

// Run sweeps every interval until ctx is done.
func (w *ReaperWorker) Run(ctx context.Context) {
	if w.ttl <= 0 || w.interval <= 0 {
		return
	}
	tick(ctx, w.interval, func(ctx context.Context) { _, _ = w.Sweep(ctx) })
}

// Sweep cancels every expired pending order once and reports how many it cancelled.
func (w *ReaperWorker) Sweep(ctx context.Context) (cancelled int, err error) {
	ctx, run := w.in.Begin(ctx, useCaseReap, "ReapExpiredOrders")
	defer func() {
		run.Note(observability.F("cancelled", cancelled))
		run.End(err)
	}()

	expired, err := w.orders.Find(ctx, domain.Filter{
		Statuses:      []domain.Status{domain.StatusPendingPayment},
		CreatedBefore: w.clock.Now().Add(-w.ttl),
	})
	if err != nil {
		run.Fail("ORDER_FIND_FAILED")
		return 0, wrapRepositoryError(err)
	}

	var errs []error
	for _, o := range expired {
		_, cerr := w.cancel.Execute(ctx, CancelOrderInput{Actor: identity.System, OrderID: o.ID})
		switch {
		case cerr == nil:
			cancelled++
		case errors.Is(cerr, domain.ErrInvalidStateTransition):
			// paid or cancelled since the scan
		default:
			errs = append(errs, cerr)
		}
	}
	if len(errs) > 0 {
		run.Fail("PARTIAL_FAILURE")
		return cancelled, errors.Join(errs...)
	}
	return cancelled, nil
}

// FulfillmentWorker walks paid orders through IN_TRANSIT to DELIVERED, one step per sweep.
type FulfillmentWorker struct {
	orders    domain.Repository
	publisher domoutbox.Publisher
	interval  time.Duration
	clock     application.Clock
	in        application.Instrument
}

func NewFulfillmentWorker(orders domain.Repository, publisher domoutbox.Publisher, interval time.Duration, clock application.Clock, tel observability.Observability) *FulfillmentWorker {
	return &FulfillmentWorker{
		orders:    orders,
		publisher: publisher,
		interval:  interval,
		clock:     clock,
		in:        application.NewInstrument(workerService, tel),
	}
}

func (w *FulfillmentWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	tick(ctx, w.interval, func(ctx context.Context) { _, _ = w.Sweep(ctx) })
}

// Sweep advances every PAID or IN_TRANSIT order by one status.
func (w *FulfillmentWorker) Sweep(ctx context.Context) (advanced int, err error) {
	ctx, run := w.in.Begin(ctx, useCaseFulfill, "AdvanceFulfillment")
	defer func() {
		run.Note(observability.F("advanced", advanced))
		run.End(err)
	}()

	open, err := w.orders.Find(ctx, domain.Filter{
		Statuses: []domain.Status{domain.StatusPaid, domain.StatusInTransit},
	})
	if err != nil {
		run.Fail("ORDER_FIND_FAILED")
		return 0, wrapRepositoryError(err)
	}

	var errs []error
	for _, o := range open {
		from := o.Status
		next, uerr := w.orders.Update(ctx, o.ID, func(o *domain.Order) error {
			if o.Status != from {
				return &domain.TransitionError{From: o.Status, Event: domain.EventDispatch}
			}
			if o.Status == domain.StatusPaid {
				return o.Dispatch(w.clock.Now())
			}
			return o.Arrive(w.clock.Now())
		})
		switch {
		case uerr == nil:
			advanced++
		case errors.Is(uerr, domain.ErrInvalidStateTransition):
			continue
		default:
			errs = append(errs, uerr)
			continue
		}

		var evt domoutbox.Event = domain.NewDeliveredEvent(next)
		if next.Status == domain.StatusInTransit {
			evt = domain.NewInTransitEvent(next)
		}
		if pubErr := w.in.Publish(ctx, w.publisher, evt); pubErr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
		}
	}
	if len(errs) > 0 {
		run.Fail("PARTIAL_FAILURE")
		return advanced, errors.Join(errs...)
	}
	return advanced, nil
}

func tick(ctx context.Context, every time.Duration, fn func(context.Context)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}
