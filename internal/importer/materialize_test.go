package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-ledger/tally/internal/model"
)

func TestMaterialize(t *testing.T) {
	cats := existing("Food", "Rent")
	ix := NewCategoryIndex(cats)
	rows := []SanitizedTransaction{
		{Line: 2, Title: "Lunch", Type: model.TypeOutcome, Value: "45", Category: "Food"},
		{Line: 3, Title: "Flat", Type: model.TypeOutcome, Value: "900", Category: "Rent"},
		{Line: 4, Title: "Taxi", Type: model.TypeOutcome, Value: "20", Category: "Travel"},
		{Line: 5, Title: "Gift", Type: model.TypeIncome, Value: "50"},
	}

	ms := Materialize(rows, ix)
	require.Len(t, ms, 4)

	assert.Equal(t, CategoryBound, ms[0].Outcome)
	require.NotNil(t, ms[0].Draft.Category)
	assert.Equal(t, cats[0].ID, ms[0].Draft.Category.ID)

	assert.Equal(t, CategoryBound, ms[1].Outcome)
	assert.Equal(t, cats[1].ID, ms[1].Draft.Category.ID)

	assert.Equal(t, CategoryUnresolved, ms[2].Outcome)
	assert.Nil(t, ms[2].Draft.Category)

	assert.Equal(t, Uncategorized, ms[3].Outcome)
	assert.Nil(t, ms[3].Draft.Category)

	assert.Equal(t, model.Draft{Title: "Lunch", Type: model.TypeOutcome, Value: "45", Category: ms[0].Draft.Category}, Drafts(ms)[0])
}

func TestMaterialize_DistinctPointers(t *testing.T) {
	ix := NewCategoryIndex(existing("Food"))
	ms := Materialize([]SanitizedTransaction{
		{Title: "a", Type: model.TypeOutcome, Value: "1", Category: "Food"},
		{Title: "b", Type: model.TypeOutcome, Value: "2", Category: "Food"},
	}, ix)

	ms[0].Draft.Category.Title = "changed"
	assert.Equal(t, "Food", ms[1].Draft.Category.Title)
}

func TestBindOutcomeString(t *testing.T) {
	assert.Equal(t, "bound", CategoryBound.String())
	assert.Equal(t, "materialized: category-unresolved", CategoryUnresolved.String())
	assert.Equal(t, "uncategorized", Uncategorized.String())
}
