package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-ledger/tally/internal/model"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	content := "title,type,value,category\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func titles(txns []model.Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.Title
	}
	return out
}

func TestImport_Scenario(t *testing.T) {
	cats := &memCategories{}
	txns := &memTransactions{}
	imp := New(cats, txns, Options{})

	path := writeCSV(t,
		"Lunch,outcome,45.00,Food",
		",income,10,Pay",
		"Salary,income,5000,Salary",
	)

	res, err := imp.Import(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Lunch", "Salary"}, titles(res.Transactions))
	assert.Equal(t, []string{"Food", "Salary"}, cats.titles(), "blank-title row contributes no category")
	require.Len(t, res.Created, 2)
	assert.Empty(t, res.Reused)
	assert.Equal(t, []SkippedRow{{Line: 3, Outcome: RowSkippedIncomplete}}, res.Skipped)

	for _, txn := range res.Transactions {
		assert.True(t, txn.IsSaved())
		require.NotNil(t, txn.Category)
		assert.True(t, txn.Category.IsSaved(), "category saved before binding")
		assert.Equal(t, txn.Category.ID, txn.CategoryID)
	}
	assert.Equal(t, "Food", res.Transactions[0].Category.Title)
	assert.Equal(t, "45.00", res.Transactions[0].Value)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "source removed after success")
}

func TestImport_ReusesExistingCategory(t *testing.T) {
	food := existing("Food")
	cats := &memCategories{stored: food}
	imp := New(cats, &memTransactions{}, Options{})

	res, err := imp.Import(context.Background(), writeCSV(t, "Lunch,outcome,45.00,Food"))
	require.NoError(t, err)

	assert.Empty(t, res.Created)
	assert.Equal(t, []string{"Food"}, cats.titles(), "no duplicate Food")
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, food[0].ID, res.Transactions[0].Category.ID)
	assert.Equal(t, food, res.Reused)
}

func TestImport_Reimport(t *testing.T) {
	cats := &memCategories{}
	txns := &memTransactions{}
	imp := New(cats, txns, Options{})
	lines := []string{"Lunch,outcome,45.00,Food", "Flat,outcome,900,Rent"}

	first, err := imp.Import(context.Background(), writeCSV(t, lines...))
	require.NoError(t, err)
	require.Len(t, first.Created, 2)

	second, err := imp.Import(context.Background(), writeCSV(t, lines...))
	require.NoError(t, err)
	assert.Empty(t, second.Created, "second run creates no categories")
	assert.Len(t, second.Reused, 2)
	assert.Len(t, cats.stored, 2)
	assert.Len(t, txns.stored, 4)
	assert.Equal(t, first.Transactions[0].CategoryID, second.Transactions[0].CategoryID)
}

func TestImport_DedupWithinRun(t *testing.T) {
	cats := &memCategories{}
	imp := New(cats, &memTransactions{}, Options{})

	lines := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		lines = append(lines, "Lunch,outcome,1,Food")
	}
	res, err := imp.Import(context.Background(), writeCSV(t, lines...))
	require.NoError(t, err)

	assert.Len(t, res.Transactions, 300)
	assert.Equal(t, []string{"Food"}, cats.titles())
	require.Len(t, cats.saveCalls, 1)
}

func TestImport_RowCountProperty(t *testing.T) {
	lines := []string{
		"a,income,1,X",
		"b,,1,X",
		"c,income,,X",
		"d,outcome,2,",
		",outcome,2,Y",
		"e,outcome,3,Y",
	}
	res, err := New(&memCategories{}, &memTransactions{}, Options{}).
		ImportReader(context.Background(), strings.NewReader("title,type,value,category\n"+strings.Join(lines, "\n")))
	require.NoError(t, err)

	assert.Len(t, res.Transactions, len(lines)-3)
	assert.Len(t, res.Skipped, 3)
}

func TestImport_Uncategorized(t *testing.T) {
	cats := &memCategories{}
	res, err := New(cats, &memTransactions{}, Options{}).
		Import(context.Background(), writeCSV(t, "Gift,income,20,"))
	require.NoError(t, err)

	require.Len(t, res.Transactions, 1)
	assert.Nil(t, res.Transactions[0].Category)
	assert.Empty(t, cats.stored, "empty label creates no category")
	assert.Empty(t, cats.findCalls)
	assert.Empty(t, res.Unresolved)
}

// driftingCategories returns saved categories under different titles than
// requested, so the materializer cannot bind them.
type driftingCategories struct{ memCategories }

func (d *driftingCategories) New(titles []string) []model.Category {
	cats := d.memCategories.New(titles)
	for i := range cats {
		cats[i].Title = strings.ToLower(cats[i].Title)
	}
	return cats
}

func TestImport_UnresolvedCategoryDegrades(t *testing.T) {
	res, err := New(&driftingCategories{}, &memTransactions{}, Options{}).
		Import(context.Background(), writeCSV(t, "Lunch,outcome,45.00,Food"))
	require.NoError(t, err)

	require.Len(t, res.Transactions, 1)
	assert.Nil(t, res.Transactions[0].Category)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "Food", res.Unresolved[0].Category)
}

func TestImport_MalformedKeepsFile(t *testing.T) {
	cats := &memCategories{}
	txns := &memTransactions{}
	path := writeCSV(t, "Lunch,outcome,45.00,Food", "broken,row")

	res, err := New(cats, txns, Options{}).Import(context.Background(), path)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, cats.findCalls, "nothing reconciled")
	assert.Zero(t, txns.saveCalls)

	_, err = os.Stat(path)
	assert.NoError(t, err, "source kept")
}

func TestImport_CategorySaveFailure(t *testing.T) {
	txns := &memTransactions{}
	path := writeCSV(t, "Lunch,outcome,45.00,Food")

	_, err := New(&memCategories{saveErr: errStore}, txns, Options{}).Import(context.Background(), path)
	require.ErrorIs(t, err, errStore)
	assert.Zero(t, txns.saveCalls, "no transactions after category failure")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestImport_TransactionSaveFailure(t *testing.T) {
	path := writeCSV(t, "Lunch,outcome,45.00,Food")

	_, err := New(&memCategories{}, &memTransactions{saveErr: errStore}, Options{}).Import(context.Background(), path)
	require.ErrorIs(t, err, errStore)
	assert.Contains(t, err.Error(), "saving transactions")

	_, err = os.Stat(path)
	assert.NoError(t, err, "source kept for retry")
}

func TestImport_MissingFile(t *testing.T) {
	_, err := New(&memCategories{}, &memTransactions{}, Options{}).
		Import(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImport_RemoveCalledOnce(t *testing.T) {
	var removed []string
	files := FileRemoverFunc(func(path string) error {
		removed = append(removed, path)
		return nil
	})
	path := writeCSV(t, "Lunch,outcome,45.00,Food")

	_, err := New(&memCategories{}, &memTransactions{}, Options{Files: files}).Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, removed)
}

func TestImport_RemoveFailureReturnsResult(t *testing.T) {
	removeErr := errors.New("read-only")
	files := FileRemoverFunc(func(string) error { return removeErr })

	res, err := New(&memCategories{}, &memTransactions{}, Options{Files: files}).
		Import(context.Background(), writeCSV(t, "Lunch,outcome,45.00,Food"))
	require.ErrorIs(t, err, removeErr)
	require.NotNil(t, res)
	assert.Len(t, res.Transactions, 1)
}

func TestImport_FromLine(t *testing.T) {
	in := "Report for March\ntitle,type,value,category\nLunch,outcome,45.00,Food\n"
	res, err := New(&memCategories{}, &memTransactions{}, Options{FromLine: 3}).
		ImportReader(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch"}, titles(res.Transactions))
}

func TestImport_Testdata(t *testing.T) {
	data, err := os.ReadFile("../../testdata/transactions.csv")
	require.NoError(t, err)

	cats := &memCategories{stored: existing("Food")}
	res, err := New(cats, &memTransactions{}, Options{}).ImportReader(context.Background(), strings.NewReader(string(data)))
	require.NoError(t, err)

	assert.Len(t, res.Transactions, 6)
	assert.Len(t, res.Skipped, 1)
	assert.Equal(t, []string{"Food", "Salary", "Rent", "Travel"}, cats.titles())
}
