package importer

import (
	"context"
	"errors"
	"time"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/model"
)

var errStore = errors.New("store unavailable")

// memCategories is an in-memory CategoryStore that records its calls.
type memCategories struct {
	stored    []model.Category
	findCalls [][]string
	saveCalls [][]model.Category
	findErr   error
	saveErr   error
}

func (m *memCategories) FindByTitles(_ context.Context, titles []string) ([]model.Category, error) {
	m.findCalls = append(m.findCalls, titles)
	if m.findErr != nil {
		return nil, m.findErr
	}
	want := make(map[string]bool, len(titles))
	for _, t := range titles {
		want[t] = true
	}
	var out []model.Category
	for _, c := range m.stored {
		if want[c.Title] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCategories) New(titles []string) []model.Category {
	out := make([]model.Category, len(titles))
	for i, t := range titles {
		out[i] = model.Category{Title: t}
	}
	return out
}

func (m *memCategories) SaveAll(_ context.Context, cats []model.Category) ([]model.Category, error) {
	m.saveCalls = append(m.saveCalls, cats)
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	out := make([]model.Category, len(cats))
	for i, c := range cats {
		c.ID = id.New()
		c.CreatedAt = time.Now()
		c.UpdatedAt = c.CreatedAt
		out[i] = c
		m.stored = append(m.stored, c)
	}
	return out, nil
}

func (m *memCategories) titles() []string {
	var out []string
	for _, c := range m.stored {
		out = append(out, c.Title)
	}
	return out
}

// memTransactions is an in-memory TransactionStore.
type memTransactions struct {
	stored    []model.Transaction
	saveCalls int
	saveErr   error
}

func (m *memTransactions) New(drafts []model.Draft) []model.Transaction {
	out := make([]model.Transaction, len(drafts))
	for i, d := range drafts {
		out[i] = model.Transaction{Title: d.Title, Type: d.Type, Value: d.Value, Category: d.Category}
	}
	return out
}

func (m *memTransactions) SaveAll(_ context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	m.saveCalls++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	out := make([]model.Transaction, len(txns))
	for i, t := range txns {
		t.ID = id.New()
		if t.Category != nil {
			t.CategoryID = t.Category.ID
		}
		out[i] = t
		m.stored = append(m.stored, t)
	}
	return out, nil
}

func existing(titles ...string) []model.Category {
	out := make([]model.Category, len(titles))
	for i, t := range titles {
		out[i] = model.Category{ID: id.New(), Title: t}
	}
	return out
}
