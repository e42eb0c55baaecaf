package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/catalog"

	"github.com/shopspring/decimal"
)

type productRow struct {
	ID            int64               `db:"id"`
	Name          string              `db:"name"`
	Category      string              `db:"category"`
	Price         decimal.Decimal     `db:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price"`
	UpdatedAt     int64               `db:"updated_at"`
}

type CatalogStore struct{ db *DB }

func NewCatalogStore(db *DB) *CatalogStore { return &CatalogStore{db: db} }

func (s *CatalogStore) Product(ctx context.Context, id int64) (domain.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT id, name, category, price, discount_price, updated_at FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("sqlstore: get product %d: %w", id, err)
	}
	return domain.Product{
		ID:            row.ID,
		Name:          row.Name,
		Category:      row.Category,
		Price:         row.Price,
		DiscountPrice: row.DiscountPrice,
		UpdatedAt:     fromNanos(row.UpdatedAt),
	}, nil
}

func (s *CatalogStore) Upsert(ctx context.Context, p domain.Product) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO products (id, name, category, price, discount_price, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			price = excluded.price,
			discount_price = excluded.discount_price,
			updated_at = excluded.updated_at`),
		p.ID, p.Name, p.Category, p.Price, p.DiscountPrice, toNanos(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: upsert product %d: %w", p.ID, err)
	}
	return nil
}
