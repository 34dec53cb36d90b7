// Package csvstore keeps categories and transactions as CSV files in a ledger
// data directory:
//
//	data/categories.csv    id,title,created_at,updated_at
//	data/transactions.csv  id,title,type,value,category_id,created_at,updated_at
//
// Writes append rows; existing rows are never rewritten.
package csvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
)

const (
	// CategoriesFile is the category table inside the data directory.
	CategoriesFile = "categories.csv"
	// TransactionsFile is the transaction table inside the data directory.
	TransactionsFile = "transactions.csv"

	timeFormat = time.RFC3339Nano
)

// Ledger is a data directory holding both tables. Writes through one Ledger
// are serialised; separate processes are not coordinated.
type Ledger struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// Open returns the ledger in dir, creating the directory if needed.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Ledger{dir: dir, now: time.Now}, nil
}

// Dir returns the data directory.
func (l *Ledger) Dir() string { return l.dir }

// Categories returns the category store.
func (l *Ledger) Categories() *Categories { return &Categories{l: l} }

// Transactions returns the transaction store.
func (l *Ledger) Transactions() *Transactions { return &Transactions{l: l} }

func (l *Ledger) path(name string) string { return filepath.Join(l.dir, name) }

func (l *Ledger) timestamp() time.Time { return l.now().UTC() }

// readRecords loads every row of a table. A missing or empty file has no rows.
func readRecords[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	var recs []T
	if err := gocsv.Unmarshal(f, &recs); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return recs, nil
}

// appendRecords appends rows to a table, writing the header if the file is new.
func appendRecords[T any](path string, recs []T) error {
	if len(recs) == 0 {
		return nil
	}

	needsHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}

	if needsHeader {
		err = gocsv.Marshal(recs, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(recs, f)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
