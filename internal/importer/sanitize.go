package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tally-ledger/tally/internal/model"
)

// RowOutcome tags what happened to a raw row.
type RowOutcome int

const (
	// RowAccepted means the row became a SanitizedTransaction.
	RowAccepted RowOutcome = iota
	// RowSkippedIncomplete means title, type or value was blank.
	RowSkippedIncomplete
)

func (o RowOutcome) String() string {
	switch o {
	case RowAccepted:
		return "accepted"
	case RowSkippedIncomplete:
		return "skipped: incomplete"
	default:
		return fmt.Sprintf("RowOutcome(%d)", int(o))
	}
}

// SanitizedTransaction is a trimmed row with all required fields present.
// Category may be empty.
type SanitizedTransaction struct {
	Line     int
	Title    string
	Type     model.TransactionType
	Value    string
	Category string
}

// SkippedRow records a row dropped by Sanitize.
type SkippedRow struct {
	Line    int
	Outcome RowOutcome
}

// Sanitize trims every cell and drops rows missing title, type or value.
func Sanitize(raw RawRow) (SanitizedTransaction, RowOutcome) {
	var cells [NumFields]string
	for i, c := range raw.Cells {
		cells[i] = strings.TrimSpace(c)
	}
	if cells[colTitle] == "" || cells[colType] == "" || cells[colValue] == "" {
		return SanitizedTransaction{}, RowSkippedIncomplete
	}
	return SanitizedTransaction{
		Line:     raw.Line,
		Title:    cells[colTitle],
		Type:     model.TransactionType(cells[colType]),
		Value:    cells[colValue],
		Category: cells[colCategory],
	}, RowAccepted
}

// Batch is everything Collect gathered from one stream.
type Batch struct {
	Rows []SanitizedTransaction
	// Labels holds the category label of every accepted row, in row order,
	// duplicates included. Empty labels are left out.
	Labels  []string
	Skipped []SkippedRow
}

// Collect drains rr. It returns only after the last row has been sanitized, so
// a returned Batch is complete.
func Collect(rr *RowReader) (Batch, error) {
	var b Batch
	for {
		raw, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return b, nil
		}
		if err != nil {
			return Batch{}, fmt.Errorf("reading rows: %w", err)
		}

		row, outcome := Sanitize(raw)
		if outcome != RowAccepted {
			b.Skipped = append(b.Skipped, SkippedRow{Line: raw.Line, Outcome: outcome})
			continue
		}
		b.Rows = append(b.Rows, row)
		if row.Category != "" {
			b.Labels = append(b.Labels, row.Category)
		}
	}
}
