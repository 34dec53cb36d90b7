package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/model"
)

// Transactions is the transactions table.
type Transactions struct {
	s *Store
}

// New builds unsaved transactions from drafts.
func (t *Transactions) New(drafts []model.Draft) []model.Transaction {
	out := make([]model.Transaction, len(drafts))
	for i, d := range drafts {
		out[i] = model.Transaction{Title: d.Title, Type: d.Type, Value: d.Value, Category: d.Category}
	}
	return out
}

// SaveAll inserts the unsaved transactions in one database transaction.
// A transaction whose category has no id is rejected before anything is sent.
func (t *Transactions) SaveAll(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	now := t.s.now().UTC()
	out := make([]model.Transaction, len(txns))
	batch := &pgx.Batch{}
	for i, txn := range txns {
		if txn.Category != nil {
			if !txn.Category.IsSaved() {
				return nil, fmt.Errorf("transaction %q references unsaved category %q", txn.Title, txn.Category.Title)
			}
			txn.CategoryID = txn.Category.ID
		}
		if !txn.IsSaved() {
			txn.ID = id.New()
			txn.CreatedAt = now
			txn.UpdatedAt = now

			var categoryID *string
			if s := id.Format(txn.CategoryID); s != "" {
				categoryID = &s
			}
			batch.Queue(
				`INSERT INTO transactions (id, title, type, value, category_id, created_at, updated_at)
				 VALUES ($1, $2, $3, $4::numeric, $5::uuid, $6, $7)`,
				txn.ID.String(), txn.Title, string(txn.Type), txn.Value, categoryID, txn.CreatedAt, txn.UpdatedAt,
			)
		}
		out[i] = txn
	}
	if err := t.s.sendBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("inserting transactions: %w", err)
	}
	return out, nil
}

// ListTransactions returns every transaction with its category, ordered by creation.
func (s *Store) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id::text, t.title, t.type, t.value::text, coalesce(t.category_id::text, ''),
		       t.created_at, t.updated_at,
		       coalesce(c.title, ''), c.created_at, c.updated_at
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			txn                  model.Transaction
			rawID, rawCategoryID string
			txnType              string
			catTitle             string
			catCreated, catUpd   *time.Time
		)
		if err := rows.Scan(&rawID, &txn.Title, &txnType, &txn.Value, &rawCategoryID,
			&txn.CreatedAt, &txn.UpdatedAt, &catTitle, &catCreated, &catUpd); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		tid, err := id.Required(rawID)
		if err != nil {
			return nil, err
		}
		cid, err := id.Parse(rawCategoryID)
		if err != nil {
			return nil, err
		}
		txn.ID = tid
		txn.CategoryID = cid
		txn.Type = model.TransactionType(txnType)
		if catCreated != nil {
			txn.Category = &model.Category{ID: txn.CategoryID, Title: catTitle, CreatedAt: *catCreated}
			if catUpd != nil {
				txn.Category.UpdatedAt = *catUpd
			}
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}
