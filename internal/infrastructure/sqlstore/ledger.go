package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
)

// Ledger keeps availability in the stock table. Reservations are a single conditional
// UPDATE, so two reservations can never both take the last unit.
type Ledger struct{ db *DB }

func NewLedger(db *DB) *Ledger { return &Ledger{db: db} }

func (l *Ledger) Reserve(ctx context.Context, productID int64, quantity int) error {
	if err := domain.ValidQuantity(quantity); err != nil {
		return err
	}
	res, err := l.db.ExecContext(ctx, l.db.Rebind(
		`UPDATE stock SET available = available - ? WHERE product_id = ? AND available >= ?`),
		quantity, productID, quantity)
	if err != nil {
		return fmt.Errorf("sqlstore: reserve %d: %w", productID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("sqlstore: reserve %d: %w", productID, err)
	} else if n == 1 {
		return nil
	}

	available, err := l.Available(ctx, productID)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
}

func (l *Ledger) Release(ctx context.Context, productID int64, quantity int) error {
	if err := domain.ValidQuantity(quantity); err != nil {
		return err
	}
	res, err := l.db.ExecContext(ctx, l.db.Rebind(
		`UPDATE stock SET available = available + ? WHERE product_id = ?`), quantity, productID)
	if err != nil {
		return fmt.Errorf("sqlstore: release %d: %w", productID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (l *Ledger) Available(ctx context.Context, productID int64) (int, error) {
	var available int
	err := l.db.GetContext(ctx, &available, l.db.Rebind(`SELECT available FROM stock WHERE product_id = ?`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("sqlstore: available %d: %w", productID, err)
	}
	return available, nil
}

func (l *Ledger) Restock(ctx context.Context, productID int64, quantity int) (int, error) {
	if quantity < 0 {
		return 0, domain.ErrInvalidQuantity
	}
	var available int
	err := l.db.GetContext(ctx, &available, l.db.Rebind(`
		INSERT INTO stock (product_id, available) VALUES (?, ?)
		ON CONFLICT (product_id) DO UPDATE SET available = stock.available + excluded.available
		RETURNING available`), productID, quantity)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: restock %d: %w", productID, err)
	}
	return available, nil
}
