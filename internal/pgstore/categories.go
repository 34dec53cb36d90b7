package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/model"
)

const categoryColumns = `id::text, title, created_at, updated_at`

// Categories is the categories table.
type Categories struct {
	s *Store
}

// FindByTitles returns categories whose title is in titles in one query.
func (c *Categories) FindByTitles(ctx context.Context, titles []string) ([]model.Category, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	rows, err := c.s.db.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE title = ANY($1) ORDER BY created_at, id`,
		titles,
	)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return collectCategories(rows)
}

// New builds unsaved categories.
func (c *Categories) New(titles []string) []model.Category {
	out := make([]model.Category, len(titles))
	for i, t := range titles {
		out[i] = model.Category{Title: t}
	}
	return out
}

// SaveAll inserts the unsaved categories in one database transaction.
func (c *Categories) SaveAll(ctx context.Context, cats []model.Category) ([]model.Category, error) {
	now := c.s.now().UTC()
	out := make([]model.Category, len(cats))
	batch := &pgx.Batch{}
	for i, cat := range cats {
		if !cat.IsSaved() {
			cat.ID = id.New()
			cat.CreatedAt = now
			cat.UpdatedAt = now
			batch.Queue(
				`INSERT INTO categories (id, title, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
				cat.ID.String(), cat.Title, cat.CreatedAt, cat.UpdatedAt,
			)
		}
		out[i] = cat
	}
	if err := c.s.sendBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("inserting categories: %w", err)
	}
	return out, nil
}

// ListCategories returns every category ordered by creation.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return collectCategories(rows)
}

func collectCategories(rows pgx.Rows) ([]model.Category, error) {
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var (
			cat   model.Category
			rawID string
		)
		if err := rows.Scan(&rawID, &cat.Title, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cid, err := id.Required(rawID)
		if err != nil {
			return nil, err
		}
		cat.ID = cid
		out = append(out, cat)
	}
	return out, rows.Err()
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
