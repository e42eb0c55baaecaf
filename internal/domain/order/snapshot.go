package order

import (
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Line is an immutable copy of catalog data taken when the order was placed.
type Line struct {
	ProductID     int64               `json:"product_id"`
	ProductName   string              `json:"product_name"`
	Category      string              `json:"category"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
}

// SnapshotLine copies name, category, price and discount price from p verbatim.
func SnapshotLine(p catalog.Product, quantity int) Line {
	return Line{
		ProductID:     p.ID,
		ProductName:   p.Name,
		Category:      p.Category,
		Quantity:      quantity,
		UnitPrice:     p.Price,
		DiscountPrice: p.DiscountPrice,
	}
}

// EffectiveUnitPrice is what the buyer paid per unit.
func (l Line) EffectiveUnitPrice() decimal.Decimal {
	return catalog.Effective(l.UnitPrice, l.DiscountPrice)
}

func (l Line) Subtotal() decimal.Decimal {
	return l.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotals of lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
