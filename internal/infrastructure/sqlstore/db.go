// Package sqlstore persists the catalog, stock, carts and orders in SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

// DB is a migrated connection pool for one dialect.
type DB struct {
	*sqlx.DB
	driver string
}

// Open connects and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("sqlstore: dsn is required")
	}
	var (
		conn *sqlx.DB
		err  error
	)
	switch driver {
	case DriverSQLite:
		conn, err = sqlx.ConnectContext(ctx, DriverSQLite, dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: connect sqlite: %w", err)
		}
		// One writer at a time; WAL lets readers proceed alongside it.
		conn.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
			if _, err := conn.ExecContext(ctx, pragma); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("sqlstore: %s: %w", pragma, err)
			}
		}
	case DriverPostgres:
		conn, err = sqlx.ConnectContext(ctx, DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: connect postgres: %w", err)
		}
		conn.SetMaxOpenConns(10)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db := &DB{DB: conn, driver: driver}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Driver() string { return db.driver }

// migrate runs the embedded migrations for the dialect. The migrate instance is not closed
// because that would close the shared pool.
func (db *DB) migrate() error {
	src, err := iofs.New(migrations, "migrations/"+db.driver)
	if err != nil {
		return fmt.Errorf("sqlstore: migration source: %w", err)
	}
	var target database.Driver
	switch db.driver {
	case DriverSQLite:
		target, err = sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	default:
		target, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("sqlstore: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, db.driver, target)
	if err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: run migrations: %w", err)
	}
	return nil
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }
