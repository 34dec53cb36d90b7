package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
)

// NumFields is the fixed column count of an import file.
const NumFields = 4

const (
	colTitle    = 0
	colType     = 1
	colValue    = 2
	colCategory = 3
)

// DefaultFromLine skips exactly one header line.
const DefaultFromLine = 2

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawRow is one untrimmed record: title, type, value, category.
type RawRow struct {
	Line  int // line the record starts on, 1-based
	Cells [NumFields]string
}

// RowReader yields RawRows one record at a time. It is not restartable.
type RowReader struct {
	cr       *csv.Reader
	fromLine int
	done     bool
}

// NewRowReader reads records starting at fromLine (1-based). Values below 1
// select DefaultFromLine.
func NewRowReader(r io.Reader, fromLine int) *RowReader {
	if fromLine < 1 {
		fromLine = DefaultFromLine
	}
	cr := csv.NewReader(skipBOM(r))
	// Field count is checked after header lines are skipped.
	cr.FieldsPerRecord = -1
	return &RowReader{cr: cr, fromLine: fromLine}
}

// Next returns the next row. It returns io.EOF once the stream is exhausted.
// Any other error is a format or I/O failure and ends the sequence.
func (r *RowReader) Next() (RawRow, error) {
	if r.done {
		return RawRow{}, io.EOF
	}
	for {
		rec, err := r.cr.Read()
		if err != nil {
			r.done = true
			return RawRow{}, err
		}
		line, _ := r.cr.FieldPos(0)
		if line < r.fromLine {
			continue
		}
		if len(rec) != NumFields {
			r.done = true
			return RawRow{}, &csv.ParseError{StartLine: line, Line: line, Column: 1, Err: csv.ErrFieldCount}
		}

		var row RawRow
		row.Line = line
		copy(row.Cells[:], rec)
		return row, nil
	}
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
