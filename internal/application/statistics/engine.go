package statistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	statisticsService   = "statistics-service"
	useCaseTopPurchased = "statistics.top_purchased"
	useCaseTopCancelled = "statistics.top_cancelled"
	useCaseStuck        = "statistics.stuck_pending_payment"
	useCaseProfit       = "statistics.profit"
	useCaseOverview     = "statistics.overview"
)

var (
	activeStatuses = []domain.Status{
		domain.StatusPendingPayment, domain.StatusPaid, domain.StatusInTransit, domain.StatusDelivered,
	}
	saleStatuses = []domain.Status{domain.StatusPaid, domain.StatusInTransit, domain.StatusDelivered}
)

// Engine computes sales reports from stored orders. It never writes.
type Engine struct {
	orders domain.Repository
	clock  application.Clock
	in     application.Instrument
}

func NewEngine(orders domain.Repository, clock application.Clock, tel observability.Observability) *Engine {
	return &Engine{orders: orders, clock: clock, in: application.NewInstrument(statisticsService, tel)}
}

// TopPurchased ranks products over every order that was not cancelled.
func (e *Engine) TopPurchased(ctx context.Context, limit int) (_ []ProductStat, err error) {
	return e.rank(ctx, useCaseTopPurchased, "TopPurchasedProducts", activeStatuses, limit)
}

// TopCancelled ranks products over cancelled orders.
func (e *Engine) TopCancelled(ctx context.Context, limit int) (_ []ProductStat, err error) {
	return e.rank(ctx, useCaseTopCancelled, "TopCancelledProducts", []domain.Status{domain.StatusCancelled}, limit)
}

func (e *Engine) rank(ctx context.Context, useCase, spanName string, statuses []domain.Status, limit int) (_ []ProductStat, err error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ctx, run := e.in.Begin(ctx, useCase, spanName, attribute.Int("limit", limit))
	defer func() { run.End(err) }()

	orders, err := e.orders.Find(ctx, domain.Filter{Statuses: statuses})
	if err != nil {
		run.Fail("ORDER_FIND_FAILED")
		return nil, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
	stats := rankProducts(orders, limit)
	run.Note(observability.F("orders_scanned", len(orders)), observability.F("products", len(stats)))
	return stats, nil
}

// StuckInPendingPayment ranks products on orders that have awaited payment for more than days.
func (e *Engine) StuckInPendingPayment(ctx context.Context, days int) (_ []ProductStat, err error) {
	ctx, run := e.in.Begin(ctx, useCaseStuck, "ProductsStuckInPendingPayment", attribute.Int("days", days))
	defer func() { run.End(err) }()

	if days < 0 {
		run.Fail("INVALID_QUERY")
		return nil, fmt.Errorf("%w: days must not be negative", ErrInvalidQuery)
	}
	orders, err := e.orders.Find(ctx, domain.Filter{
		Statuses:      []domain.Status{domain.StatusPendingPayment},
		CreatedBefore: e.clock.Now().AddDate(0, 0, -days),
	})
	if err != nil {
		run.Fail("ORDER_FIND_FAILED")
		return nil, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
	return rankProducts(orders, 0), nil
}

// Profit sums sale totals into gap-free buckets covering the last PeriodCount units.
func (e *Engine) Profit(ctx context.Context, q ProfitQuery) (_ ProfitReport, err error) {
	ctx, run := e.in.Begin(ctx, useCaseProfit, "ProfitStatistics",
		attribute.Int("period.count", q.PeriodCount),
		attribute.String("period.unit", q.PeriodUnit),
		attribute.String("group_by", q.GroupBy),
	)
	defer func() { run.End(err) }()

	unit, group, err := q.parse()
	if err != nil {
		run.Fail("INVALID_QUERY")
		return ProfitReport{}, err
	}
	if q.PeriodCount > unit.maxCount() {
		run.Fail("INVALID_QUERY")
		return ProfitReport{}, fmt.Errorf("%w: window longer than %d years", ErrInvalidQuery, maxWindowYears)
	}
	end := e.clock.Now()
	start := unit.shift(end, -q.PeriodCount)
	if !start.Before(end) {
		run.Fail("INVALID_QUERY")
		return ProfitReport{}, fmt.Errorf("%w: window start %s is not before its end", ErrInvalidQuery, start.Format(time.RFC3339))
	}
	bs, err := buckets(start, end, group)
	if err != nil {
		run.Fail("INVALID_QUERY")
		return ProfitReport{}, fmt.Errorf("%w: more than %d buckets", ErrInvalidQuery, maxBuckets)
	}

	orders, err := e.orders.Find(ctx, domain.Filter{Statuses: saleStatuses, CreatedFrom: start})
	if err != nil {
		run.Fail("ORDER_FIND_FAILED")
		return ProfitReport{}, fmt.Errorf("%w: %w", application.ErrRepository, err)
	}

	total := decimal.Zero
	for _, o := range orders {
		i := bucketFor(bs, o.CreatedAt)
		if i < 0 {
			continue
		}
		bs[i].Profit = bs[i].Profit.Add(o.Total)
		total = total.Add(o.Total)
	}
	run.Note(observability.F("buckets", len(bs)), observability.F("orders_counted", len(orders)))
	return ProfitReport{Start: start, End: end, GroupBy: group, Buckets: bs, Total: total}, nil
}

func (q ProfitQuery) parse() (PeriodUnit, GroupBy, error) {
	if q.PeriodCount <= 0 {
		return "", "", fmt.Errorf("%w: period count must be positive", ErrInvalidQuery)
	}
	unit, uerr := ParsePeriodUnit(q.PeriodUnit)
	group, gerr := ParseGroupBy(q.GroupBy)
	if err := errors.Join(uerr, gerr); err != nil {
		return "", "", err
	}
	return unit, group, nil
}

type OverviewQuery struct {
	Limit     int
	StuckDays int
	Profit    ProfitQuery
}

type Overview struct {
	TopPurchased []ProductStat `json:"top_purchased"`
	TopCancelled []ProductStat `json:"top_cancelled"`
	Stuck        []ProductStat `json:"stuck_in_pending_payment"`
	Profit       ProfitReport  `json:"profit"`
}

// Overview runs every report concurrently. The first failure cancels the rest.
func (e *Engine) Overview(ctx context.Context, q OverviewQuery) (_ Overview, err error) {
	ctx, run := e.in.Begin(ctx, useCaseOverview, "StatisticsOverview")
	defer func() { run.End(err) }()

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TopPurchased, err = e.TopPurchased(gctx, q.Limit)
		return err
	})
	g.Go(func() (err error) {
		out.TopCancelled, err = e.TopCancelled(gctx, q.Limit)
		return err
	})
	g.Go(func() (err error) {
		out.Stuck, err = e.StuckInPendingPayment(gctx, q.StuckDays)
		return err
	})
	g.Go(func() (err error) {
		out.Profit, err = e.Profit(gctx, q.Profit)
		return err
	})
	if err := g.Wait(); err != nil {
		run.Fail("REPORT_FAILED")
		return Overview{}, err
	}
	return out, nil
}
