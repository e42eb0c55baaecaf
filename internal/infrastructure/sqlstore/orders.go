package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, user_id, status, total, lines, delivery, payment_method, created_at, updated_at, version`

type orderRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	Status        string          `db:"status"`
	Total         decimal.Decimal `db:"total"`
	Lines         []byte          `db:"lines"`
	Delivery      []byte          `db:"delivery"`
	PaymentMethod string          `db:"payment_method"`
	CreatedAt     int64           `db:"created_at"`
	UpdatedAt     int64           `db:"updated_at"`
	Version       int64           `db:"version"`
}

func (r orderRow) toDomain() (*domain.Order, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: order %s: %w", r.ID, err)
	}
	o := &domain.Order{
		ID:            r.ID,
		UserID:        r.UserID,
		Status:        status,
		Total:         r.Total,
		PaymentMethod: payment.Method(r.PaymentMethod),
		CreatedAt:     fromNanos(r.CreatedAt),
		UpdatedAt:     fromNanos(r.UpdatedAt),
		Version:       r.Version,
	}
	if err := json.Unmarshal(r.Lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("sqlstore: decode lines of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.Delivery, &o.Delivery); err != nil {
		return nil, fmt.Errorf("sqlstore: decode delivery of %s: %w", r.ID, err)
	}
	return o, nil
}

// OrderStore keeps one row per order. Lines and delivery are JSON documents.
type OrderStore struct{ db *DB }

func NewOrderStore(db *DB) *OrderStore { return &OrderStore{db: db} }

func (s *OrderStore) Insert(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return errors.New("sqlstore: order id is required")
	}
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("sqlstore: encode lines of %s: %w", o.ID, err)
	}
	delivery, err := json.Marshal(o.Delivery)
	if err != nil {
		return fmt.Errorf("sqlstore: encode delivery of %s: %w", o.ID, err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		o.ID, o.UserID, string(o.Status), o.Total, string(lines), string(delivery),
		string(o.PaymentMethod), toNanos(o.CreatedAt), toNanos(o.UpdatedAt), 1)
	if err != nil {
		return fmt.Errorf("sqlstore: insert order %s: %w", o.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrConflict
	}
	o.Version = 1
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get order %s: %w", id, err)
	}
	return row.toDomain()
}

// Update retries fn on a fresh copy whenever another writer bumped the version first.
func (s *OrderStore) Update(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error) {
	for attempt := 0; attempt < domain.MaxUpdateAttempts; attempt++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		read := current.Version
		if err := fn(current); err != nil {
			return nil, err
		}
		delivery, err := json.Marshal(current.Delivery)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: encode delivery of %s: %w", id, err)
		}

		res, err := s.db.ExecContext(ctx, s.db.Rebind(`
			UPDATE orders SET status = ?, delivery = ?, payment_method = ?, updated_at = ?, version = ?
			WHERE id = ? AND version = ?`),
			string(current.Status), string(delivery), string(current.PaymentMethod),
			toNanos(current.UpdatedAt), read+1, id, read)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: update order %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("sqlstore: update order %s: %w", id, err)
		} else if n == 1 {
			current.Version = read + 1
			return current, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s kept changing", domain.ErrConflict, id)
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string, page domain.Page) (domain.PageResult, error) {
	page = page.Normalize()
	result := domain.PageResult{Page: page}
	if err := s.db.GetContext(ctx, &result.Total, s.db.Rebind(`SELECT COUNT(*) FROM orders WHERE user_id = ?`), userID); err != nil {
		return domain.PageResult{}, fmt.Errorf("sqlstore: count orders of %s: %w", userID, err)
	}
	orders, err := s.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, userID, page.Size, page.Offset())
	if err != nil {
		return domain.PageResult{}, err
	}
	result.Orders = orders
	return result, nil
}

func (s *OrderStore) Find(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		where = append(where, "status IN (?)")
		args = append(args, statuses)
	}
	if !f.CreatedFrom.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toNanos(f.CreatedFrom))
	}
	if !f.CreatedBefore.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, toNanos(f.CreatedBefore))
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find orders: %w", err)
	}
	return s.query(ctx, q, args...)
}

func (s *OrderStore) query(ctx context.Context, q string, args ...any) ([]*domain.Order, error) {
	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: query orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(rows))
	for _, r := range rows {
		o, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
