package importlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:         testTime,
		File:              "import/january.csv",
		Transactions:      12,
		CategoriesCreated: 3,
		CategoriesReused:  1,
		RowsSkipped:       2,
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "2025-01-15T10:30:00Z,import/january.csv,12,3,1,2,0", lines[1])
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.File = "upload.csv"
	e2.RowsUnresolved = 1
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "import/january.csv", entries[0].File)
	assert.Equal(t, "upload.csv", entries[1].File)
	assert.Equal(t, 1, entries[1].RowsUnresolved)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "timestamp,"), "header written once")
}

func TestAppend_Nothing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, nil))

	_, err := os.Stat(Path(dir))
	assert.True(t, os.IsNotExist(err))
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.File, got.File)
	assert.Equal(t, original.Transactions, got.Transactions)
	assert.Equal(t, original.CategoriesCreated, got.CategoriesCreated)
	assert.Equal(t, original.CategoriesReused, got.CategoriesReused)
	assert.Equal(t, original.RowsSkipped, got.RowsSkipped)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), nil, 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_BadTimestamp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	content := Header + "\nyesterday,a.csv,1,0,0,0,0\n"
	require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0o644))

	_, err := Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
