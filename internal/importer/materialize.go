package importer

import (
	"fmt"

	"github.com/tally-ledger/tally/internal/model"
)

// BindOutcome tags how a row's category label was resolved.
type BindOutcome int

const (
	// CategoryBound means the label matched a category.
	CategoryBound BindOutcome = iota
	// CategoryUnresolved means the label matched nothing; the draft has no category.
	CategoryUnresolved
	// Uncategorized means the row had an empty label.
	Uncategorized
)

func (o BindOutcome) String() string {
	switch o {
	case CategoryBound:
		return "bound"
	case CategoryUnresolved:
		return "materialized: category-unresolved"
	case Uncategorized:
		return "uncategorized"
	default:
		return fmt.Sprintf("BindOutcome(%d)", int(o))
	}
}

// Materialized pairs a row with the draft built from it.
type Materialized struct {
	Row     SanitizedTransaction
	Draft   model.Draft
	Outcome BindOutcome
}

// Materialize binds each row to its category in index by exact title.
// A label with no match degrades to a draft without category.
func Materialize(rows []SanitizedTransaction, index *CategoryIndex) []Materialized {
	out := make([]Materialized, 0, len(rows))
	for _, row := range rows {
		m := Materialized{
			Row: row,
			Draft: model.Draft{
				Title: row.Title,
				Type:  row.Type,
				Value: row.Value,
			},
		}
		switch c, ok := index.Get(row.Category); {
		case row.Category == "":
			m.Outcome = Uncategorized
		case ok:
			m.Draft.Category = &c
			m.Outcome = CategoryBound
		default:
			m.Outcome = CategoryUnresolved
		}
		out = append(out, m)
	}
	return out
}

// Drafts extracts the drafts from ms.
func Drafts(ms []Materialized) []model.Draft {
	drafts := make([]model.Draft, len(ms))
	for i, m := range ms {
		drafts[i] = m.Draft
	}
	return drafts
}
