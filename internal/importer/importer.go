// Package importer turns a transaction CSV into persisted transactions,
// creating any categories the file references that the store does not have.
//
// The pipeline runs strictly forward: rows are read and sanitized, the
// category labels are reconciled against the store in one lookup and one save,
// rows are bound to categories, and the transactions are saved in one batch.
// Nothing is rolled back if a later step fails.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tally-ledger/tally/internal/logging"
	"github.com/tally-ledger/tally/internal/model"
)

// TransactionStore is the persistent transaction collaborator.
type TransactionStore interface {
	// New builds unsaved transactions, one per draft, in order.
	New(drafts []model.Draft) []model.Transaction
	// SaveAll persists transactions in one batch and returns them with identity.
	SaveAll(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error)
}

// FileRemover deletes the source file after a successful import.
type FileRemover interface {
	Remove(path string) error
}

// FileRemoverFunc adapts a function to FileRemover.
type FileRemoverFunc func(path string) error

// Remove calls f(path).
func (f FileRemoverFunc) Remove(path string) error { return f(path) }

// Options tunes an Importer. The zero value is usable.
type Options struct {
	// FromLine is the first line read from the file; 0 means DefaultFromLine.
	FromLine int
	// Files removes the source file; nil means os.Remove.
	Files FileRemover
	// Logger receives stage logs; nil discards them.
	Logger logrus.FieldLogger
}

// Importer runs the import pipeline against a pair of stores.
type Importer struct {
	categories   CategoryStore
	transactions TransactionStore
	reconciler   *Reconciler
	files        FileRemover
	fromLine     int
	log          logrus.FieldLogger
}

// New creates an Importer.
func New(categories CategoryStore, transactions TransactionStore, opts Options) *Importer {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	files := opts.Files
	if files == nil {
		files = FileRemoverFunc(os.Remove)
	}
	return &Importer{
		categories:   categories,
		transactions: transactions,
		reconciler:   NewReconciler(categories, log),
		files:        files,
		fromLine:     opts.FromLine,
		log:          log,
	}
}

// Result describes one completed import.
type Result struct {
	// Transactions are the persisted transactions in file order.
	Transactions []model.Transaction
	// Created are the categories this import added to the store.
	Created []model.Category
	// Reused are the stored categories this import referenced.
	Reused []model.Category
	// Skipped are rows dropped for missing required fields.
	Skipped []SkippedRow
	// Unresolved are rows whose category label could not be bound.
	Unresolved []SanitizedTransaction
}

// Import imports the file at path and removes it once the transactions are
// saved. On any failure before that the file is left in place and no result
// is returned. If only the removal fails, the result is returned along with
// the error.
func (i *Importer) Import(ctx context.Context, path string) (*Result, error) {
	log := i.log.WithField("file", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	batch, err := Collect(NewRowReader(f, i.fromLine))
	closeErr := f.Close()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("closing %s: %w", path, closeErr)
	}

	res, err := i.persist(ctx, batch, log)
	if err != nil {
		return nil, err
	}

	if err := i.files.Remove(path); err != nil {
		return res, fmt.Errorf("removing %s: %w", path, err)
	}
	log.Debug("removed source file")
	return res, nil
}

// ImportReader runs the pipeline over r without any file handling.
func (i *Importer) ImportReader(ctx context.Context, r io.Reader) (*Result, error) {
	batch, err := Collect(NewRowReader(r, i.fromLine))
	if err != nil {
		return nil, err
	}
	return i.persist(ctx, batch, i.log)
}

func (i *Importer) persist(ctx context.Context, batch Batch, log logrus.FieldLogger) (*Result, error) {
	log.WithFields(logrus.Fields{
		"rows":    len(batch.Rows),
		"skipped": len(batch.Skipped),
	}).Debug("collected rows")

	// Categories must be saved before binding so drafts reference saved ids.
	rec, err := i.reconciler.Reconcile(ctx, batch.Labels)
	if err != nil {
		return nil, err
	}

	materialized := Materialize(batch.Rows, rec.Index())
	res := &Result{
		Created: rec.Created,
		Reused:  rec.Existing,
		Skipped: batch.Skipped,
	}
	for _, m := range materialized {
		if m.Outcome == CategoryUnresolved {
			res.Unresolved = append(res.Unresolved, m.Row)
			log.WithFields(logrus.Fields{
				"line":     m.Row.Line,
				"category": m.Row.Category,
			}).Warn("category not resolved, saving transaction without category")
		}
	}

	saved, err := i.transactions.SaveAll(ctx, i.transactions.New(Drafts(materialized)))
	if err != nil {
		return nil, fmt.Errorf("saving transactions: %w", err)
	}
	res.Transactions = saved

	log.WithFields(logrus.Fields{
		"transactions":       len(saved),
		"categories_created": len(rec.Created),
		"categories_reused":  len(rec.Existing),
		"rows_skipped":       len(batch.Skipped),
	}).Info("import complete")
	return res, nil
}
