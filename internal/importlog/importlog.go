// Package importlog records one row per completed import in
// <repo>/logs/import-log.csv.
package importlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// Header is the CSV header for import-log.csv.
const Header = "timestamp,file,transactions,categories_created,categories_reused,rows_skipped,rows_unresolved"

const (
	logDir  = "logs"
	logFile = "logs/import-log.csv"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp         time.Time
	File              string
	Transactions      int
	CategoriesCreated int
	CategoriesReused  int
	RowsSkipped       int
	RowsUnresolved    int
}

type entryRecord struct {
	Timestamp         string `csv:"timestamp"`
	File              string `csv:"file"`
	Transactions      int    `csv:"transactions"`
	CategoriesCreated int    `csv:"categories_created"`
	CategoriesReused  int    `csv:"categories_reused"`
	RowsSkipped       int    `csv:"rows_skipped"`
	RowsUnresolved    int    `csv:"rows_unresolved"`
}

func marshalEntry(e Entry) entryRecord {
	return entryRecord{
		Timestamp:         e.Timestamp.UTC().Format(time.RFC3339),
		File:              e.File,
		Transactions:      e.Transactions,
		CategoriesCreated: e.CategoriesCreated,
		CategoriesReused:  e.CategoriesReused,
		RowsSkipped:       e.RowsSkipped,
		RowsUnresolved:    e.RowsUnresolved,
	}
}

func unmarshalEntry(r entryRecord) (Entry, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", r.Timestamp, err)
	}
	return Entry{
		Timestamp:         ts,
		File:              r.File,
		Transactions:      r.Transactions,
		CategoriesCreated: r.CategoriesCreated,
		CategoriesReused:  r.CategoriesReused,
		RowsSkipped:       r.RowsSkipped,
		RowsUnresolved:    r.RowsUnresolved,
	}, nil
}

// Path returns the import log location for a repo.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, logFile)
}

// Append writes entries to <repoRoot>/logs/import-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(repoRoot, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(repoRoot)
	needsHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		needsHeader = true
	}

	recs := make([]entryRecord, len(entries))
	for i, e := range entries {
		recs[i] = marshalEntry(e)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	if needsHeader {
		err = gocsv.Marshal(recs, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(recs, f)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("writing import log: %w", err)
	}
	return f.Close()
}

// Read returns all entries from <repoRoot>/logs/import-log.csv.
// Returns nil if the file does not exist or is empty.
func Read(repoRoot string) ([]Entry, error) {
	data, err := os.ReadFile(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var recs []entryRecord
	if err := gocsv.UnmarshalBytes(data, &recs); err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	var entries []Entry
	for i, r := range recs {
		e, err := unmarshalEntry(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
