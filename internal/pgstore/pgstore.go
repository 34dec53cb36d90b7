// Package pgstore keeps categories and transactions in PostgreSQL.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens and pings a pool for url.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 2 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id         uuid PRIMARY KEY,
	title      text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS categories_title_idx ON categories (title);

CREATE TABLE IF NOT EXISTS transactions (
	id          uuid PRIMARY KEY,
	title       text NOT NULL,
	type        text NOT NULL,
	value       numeric NOT NULL,
	category_id uuid REFERENCES categories (id) ON DELETE SET NULL,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
);
`

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Store holds both tables on one pool.
type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// New creates a Store on db.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: time.Now}
}

// Categories returns the category store.
func (s *Store) Categories() *Categories { return &Categories{s: s} }

// Transactions returns the transaction store.
func (s *Store) Transactions() *Transactions { return &Transactions{s: s} }
