package csvstore

import (
	"context"
	"fmt"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/model"
)

type transactionRecord struct {
	ID         string `csv:"id"`
	Title      string `csv:"title"`
	Type       string `csv:"type"`
	Value      string `csv:"value"`
	CategoryID string `csv:"category_id"`
	CreatedAt  string `csv:"created_at"`
	UpdatedAt  string `csv:"updated_at"`
}

func marshalTransaction(t model.Transaction) transactionRecord {
	return transactionRecord{
		ID:         id.Format(t.ID),
		Title:      t.Title,
		Type:       string(t.Type),
		Value:      t.Value,
		CategoryID: id.Format(t.CategoryID),
		CreatedAt:  formatTime(t.CreatedAt),
		UpdatedAt:  formatTime(t.UpdatedAt),
	}
}

func unmarshalTransaction(r transactionRecord) (model.Transaction, error) {
	tid, err := id.Required(r.ID)
	if err != nil {
		return model.Transaction{}, err
	}
	cid, err := id.Parse(r.CategoryID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("category_id: %w", err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	return model.Transaction{
		ID:         tid,
		Title:      r.Title,
		Type:       model.TransactionType(r.Type),
		Value:      r.Value,
		CategoryID: cid,
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

// Transactions is the transaction table of a Ledger.
type Transactions struct {
	l *Ledger
}

// New builds unsaved transactions from drafts.
func (s *Transactions) New(drafts []model.Draft) []model.Transaction {
	out := make([]model.Transaction, len(drafts))
	for i, d := range drafts {
		out[i] = model.Transaction{
			Title:    d.Title,
			Type:     d.Type,
			Value:    d.Value,
			Category: d.Category,
		}
	}
	return out
}

// SaveAll appends the unsaved transactions in one write and assigns their ids.
// A transaction whose category has no id is rejected before anything is written.
func (s *Transactions) SaveAll(_ context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	now := s.l.timestamp()
	out := make([]model.Transaction, len(txns))
	var recs []transactionRecord
	for i, t := range txns {
		if t.Category != nil {
			if !t.Category.IsSaved() {
				return nil, fmt.Errorf("transaction %q references unsaved category %q", t.Title, t.Category.Title)
			}
			t.CategoryID = t.Category.ID
		}
		if !t.IsSaved() {
			t.ID = id.New()
			t.CreatedAt = now
			t.UpdatedAt = now
			recs = append(recs, marshalTransaction(t))
		}
		out[i] = t
	}

	if err := appendRecords(s.l.path(TransactionsFile), recs); err != nil {
		return nil, fmt.Errorf("saving transactions: %w", err)
	}
	return out, nil
}

// ListTransactions returns every stored transaction in file order with its
// category attached. A category_id with no matching category leaves Category nil.
func (l *Ledger) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cats, err := l.readCategories()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID.String()] = &cats[i]
	}

	recs, err := readRecords[transactionRecord](l.path(TransactionsFile))
	if err != nil {
		return nil, err
	}
	txns := make([]model.Transaction, 0, len(recs))
	for i, r := range recs {
		t, err := unmarshalTransaction(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", TransactionsFile, i+2, err)
		}
		if c, ok := byID[r.CategoryID]; ok {
			t.Category = c
		}
		txns = append(txns, t)
	}
	return txns, nil
}
