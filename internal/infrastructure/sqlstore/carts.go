package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
)

const maxCartAttempts = 8

type cartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type cartRow struct {
	UserID    string `db:"user_id"`
	Lines     []byte `db:"lines"`
	UpdatedAt int64  `db:"updated_at"`
	Version   int64  `db:"version"`
}

// CartStore saves each cart as one row. Mutations compare and swap on version.
type CartStore struct{ db *DB }

func NewCartStore(db *DB) *CartStore { return &CartStore{db: db} }

func (s *CartStore) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var row cartRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT user_id, lines, updated_at, version FROM carts WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.New(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get cart %s: %w", userID, err)
	}
	var lines []cartLine
	if err := json.Unmarshal(row.Lines, &lines); err != nil {
		return nil, fmt.Errorf("sqlstore: decode cart %s: %w", userID, err)
	}
	c := &domain.Cart{UserID: row.UserID, UpdatedAt: fromNanos(row.UpdatedAt), Version: row.Version}
	for _, l := range lines {
		c.Lines = append(c.Lines, domain.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return c, nil
}

func (s *CartStore) Mutate(ctx context.Context, userID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 0; attempt < maxCartAttempts; attempt++ {
		current, err := s.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		read := current.Version
		if err := fn(current); err != nil {
			return nil, err
		}
		current.Version = read + 1

		stored, err := s.write(ctx, current, read)
		if err != nil {
			return nil, err
		}
		if stored {
			return current, nil
		}
	}
	return nil, fmt.Errorf("%w: cart of %s kept changing", domain.ErrConflict, userID)
}

func (s *CartStore) write(ctx context.Context, c *domain.Cart, read int64) (bool, error) {
	lines := make([]cartLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, cartLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return false, fmt.Errorf("sqlstore: encode cart %s: %w", c.UserID, err)
	}

	var res sql.Result
	if read == 0 {
		res, err = s.db.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO carts (user_id, lines, updated_at, version) VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id) DO NOTHING`),
			c.UserID, string(payload), toNanos(c.UpdatedAt), c.Version)
	} else {
		res, err = s.db.ExecContext(ctx, s.db.Rebind(
			`UPDATE carts SET lines = ?, updated_at = ?, version = ? WHERE user_id = ? AND version = ?`),
			string(payload), toNanos(c.UpdatedAt), c.Version, c.UserID, read)
	}
	if err != nil {
		return false, fmt.Errorf("sqlstore: save cart %s: %w", c.UserID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore: save cart %s: %w", c.UserID, err)
	}
	return n == 1, nil
}
