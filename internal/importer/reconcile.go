package importer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tally-ledger/tally/internal/model"
)

// CategoryStore is the persistent category collaborator.
type CategoryStore interface {
	// FindByTitles returns every stored category whose title is in titles.
	FindByTitles(ctx context.Context, titles []string) ([]model.Category, error)
	// New builds unsaved categories, one per title, in order.
	New(titles []string) []model.Category
	// SaveAll persists categories in one batch and returns them with identity.
	SaveAll(ctx context.Context, categories []model.Category) ([]model.Category, error)
}

// Reconciliation splits the labels of one import into categories that were
// created by it and categories that already existed.
type Reconciliation struct {
	Created  []model.Category
	Existing []model.Category
}

// Index returns a title lookup over created then existing categories.
func (r Reconciliation) Index() *CategoryIndex {
	return NewCategoryIndex(r.Created, r.Existing)
}

// Reconciler resolves category labels against a CategoryStore.
type Reconciler struct {
	store CategoryStore
	log   logrus.FieldLogger
}

// NewReconciler creates a Reconciler.
func NewReconciler(store CategoryStore, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Reconcile looks up all labels in one query and creates the missing ones in
// one save. At most one category per distinct title is created.
func (r *Reconciler) Reconcile(ctx context.Context, labels []string) (Reconciliation, error) {
	if len(labels) == 0 {
		return Reconciliation{}, nil
	}

	existing, err := r.store.FindByTitles(ctx, Distinct(labels))
	if err != nil {
		return Reconciliation{}, fmt.Errorf("finding categories: %w", err)
	}

	missing := MissingTitles(labels, existing)
	r.log.WithFields(logrus.Fields{
		"labels":   len(labels),
		"existing": len(existing),
		"missing":  len(missing),
	}).Debug("reconciled category labels")

	if len(missing) == 0 {
		return Reconciliation{Existing: existing}, nil
	}

	created, err := r.store.SaveAll(ctx, r.store.New(missing))
	if err != nil {
		return Reconciliation{}, fmt.Errorf("saving categories: %w", err)
	}
	return Reconciliation{Created: created, Existing: existing}, nil
}

// MissingTitles returns the labels with no matching title in existing,
// deduplicated in first-occurrence order.
func MissingTitles(labels []string, existing []model.Category) []string {
	found := make(map[string]bool, len(existing))
	for _, c := range existing {
		found[c.Title] = true
	}

	var missing []string
	for _, l := range Distinct(labels) {
		if !found[l] {
			missing = append(missing, l)
		}
	}
	return missing
}

// Distinct removes duplicates, keeping the first occurrence of each string.
func Distinct(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// CategoryIndex provides lookup by exact title.
type CategoryIndex struct {
	categories []model.Category
	byTitle    map[string]model.Category
}

// NewCategoryIndex indexes the given groups in order. When a title repeats,
// the first category seen wins.
func NewCategoryIndex(groups ...[]model.Category) *CategoryIndex {
	ix := &CategoryIndex{byTitle: make(map[string]model.Category)}
	for _, g := range groups {
		for _, c := range g {
			ix.categories = append(ix.categories, c)
			if _, ok := ix.byTitle[c.Title]; !ok {
				ix.byTitle[c.Title] = c
			}
		}
	}
	return ix
}

// Get returns the category titled title.
func (ix *CategoryIndex) Get(title string) (model.Category, bool) {
	c, ok := ix.byTitle[title]
	return c, ok
}

// All returns every indexed category, duplicates included.
func (ix *CategoryIndex) All() []model.Category {
	return ix.categories
}

// Len returns the number of distinct titles.
func (ix *CategoryIndex) Len() int {
	return len(ix.byTitle)
}
