package inventory

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService   = "inventory-worker"
	useCaseLowStock = "inventory.worker.order_placed"
)

// LowStockWorker watches placements and raises inventory.low_stock for products
// left at or below the threshold.
type LowStockWorker struct {
	ledger    dominv.Ledger
	publisher domoutbox.Publisher
	threshold int
	clock     application.Clock
	in        application.Instrument
	lowStock  observability.Counter // stock_low_total
}

func NewLowStockWorker(ledger dominv.Ledger, publisher domoutbox.Publisher, threshold int, clock application.Clock, tel observability.Observability) *LowStockWorker {
	metrics := observability.NopMetrics()
	if tel != nil {
		metrics = tel.Metrics()
	}
	return &LowStockWorker{
		ledger:    ledger,
		publisher: publisher,
		threshold: threshold,
		clock:     clock,
		in:        application.NewInstrument(workerService, tel),
		lowStock:  metrics.Counter(observability.MLowStock),
	}
}

// Start subscribes to order.placed. A negative threshold disables the worker.
func (w *LowStockWorker) Start(subscriber domoutbox.Subscriber, wrap ...domoutbox.Middleware) {
	if subscriber == nil || w.threshold < 0 {
		return
	}
	h := domoutbox.Chain(w.HandleOrderPlaced, wrap...)
	subscriber.Subscribe(domorder.EventNamePlaced, h)
}

func (w *LowStockWorker) HandleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.PlacedEvent)
	if !ok {
		return nil
	}
	ctx, run := w.in.Begin(ctx, useCaseLowStock, "CheckLowStock",
		attribute.String("order.id", evt.OrderID),
		attribute.Int("threshold", w.threshold),
	)
	defer func() { run.End(err) }()

	var errs []error
	low := 0
	for _, l := range evt.Items {
		available, aerr := w.ledger.Available(ctx, l.ProductID)
		if aerr != nil {
			errs = append(errs, aerr)
			continue
		}
		if available > w.threshold {
			continue
		}
		low++
		w.lowStock.Add(1)
		run.Logger().Warn("stock_low",
			observability.F("product_id", l.ProductID),
			observability.F("available", available),
			observability.F("threshold", w.threshold),
		)
		lowEvt := dominv.LowStockEvent{ProductID: l.ProductID, Available: available, Threshold: w.threshold, At: w.clock.Now()}
		if pubErr := w.in.Publish(ctx, w.publisher, lowEvt); pubErr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
		}
	}
	run.Note(observability.F("low_products", low))
	if len(errs) > 0 {
		run.Fail("STOCK_READ_FAILED")
		return errors.Join(errs...)
	}
	return nil
}
