package statistics

import (
	"errors"
	"sort"
	"time"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuery = errors.New("statistics: invalid query")

const (
	DefaultLimit = 10
	maxBuckets   = 10000
	// maxWindowYears bounds how far back a profit window may reach.
	maxWindowYears = 1000
)

// ProductStat is one product's summed quantity with the display data of its latest snapshot.
type ProductStat struct {
	ProductID     int64               `json:"product_id"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Quantity      int                 `json:"quantity"`
}

type ProfitQuery struct {
	PeriodCount int
	PeriodUnit  string
	GroupBy     string
}

// ProfitBucket covers (Start, End]. The earliest bucket of a report also includes Start.
type ProfitBucket struct {
	Label  string          `json:"label"`
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Profit decimal.Decimal `json:"profit"`
}

type ProfitReport struct {
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	GroupBy GroupBy         `json:"group_by"`
	Buckets []ProfitBucket  `json:"buckets"`
	Total   decimal.Decimal `json:"total_profit"`
}

// ByLabel returns bucket profits keyed by label.
func (r ProfitReport) ByLabel() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(r.Buckets))
	for _, b := range r.Buckets {
		out[b.Label] = b.Profit
	}
	return out
}

type tally struct {
	stat   ProductStat
	seenAt time.Time
}

// rankProducts sums line quantities per product, highest first, ties by ascending id.
func rankProducts(orders []*domain.Order, limit int) []ProductStat {
	byID := make(map[int64]*tally)
	for _, o := range orders {
		for _, l := range o.Lines {
			t, ok := byID[l.ProductID]
			if !ok {
				t = &tally{stat: ProductStat{ProductID: l.ProductID}}
				byID[l.ProductID] = t
			}
			t.stat.Quantity += l.Quantity
			if !ok || o.CreatedAt.After(t.seenAt) {
				t.seenAt = o.CreatedAt
				t.stat.Name = l.ProductName
				t.stat.Category = l.Category
				t.stat.Price = l.UnitPrice
				t.stat.DiscountPrice = l.DiscountPrice
			}
		}
	}

	out := make([]ProductStat, 0, len(byID))
	for _, t := range byID {
		out = append(out, t.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// buckets partitions [start, end] stepping back from end, in chronological order.
func buckets(start, end time.Time, g GroupBy) ([]ProfitBucket, error) {
	var out []ProfitBucket
	hi := end
	for i := 1; ; i++ {
		if len(out) == maxBuckets {
			return nil, ErrInvalidQuery
		}
		lo := g.shift(end, -i)
		if !lo.After(start) {
			lo = start
		}
		out = append(out, ProfitBucket{Label: g.label(hi), Start: lo, End: hi, Profit: decimal.Zero})
		if lo.Equal(start) {
			break
		}
		hi = lo
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// bucketFor returns the index of the bucket holding t, or -1 outside the window.
func bucketFor(bs []ProfitBucket, t time.Time) int {
	if len(bs) == 0 || t.Before(bs[0].Start) || t.After(bs[len(bs)-1].End) {
		return -1
	}
	return sort.Search(len(bs), func(i int) bool { return !bs[i].End.Before(t) })
}
