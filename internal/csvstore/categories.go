package csvstore

import (
	"context"
	"fmt"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/model"
)

type categoryRecord struct {
	ID        string `csv:"id"`
	Title     string `csv:"title"`
	CreatedAt string `csv:"created_at"`
	UpdatedAt string `csv:"updated_at"`
}

func marshalCategory(c model.Category) categoryRecord {
	return categoryRecord{
		ID:        id.Format(c.ID),
		Title:     c.Title,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func unmarshalCategory(r categoryRecord) (model.Category, error) {
	cid, err := id.Required(r.ID)
	if err != nil {
		return model.Category{}, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Category{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: cid, Title: r.Title, CreatedAt: created, UpdatedAt: updated}, nil
}

// Categories is the category table of a Ledger.
type Categories struct {
	l *Ledger
}

// FindByTitles returns stored categories whose title is in titles, in file order.
func (s *Categories) FindByTitles(_ context.Context, titles []string) ([]model.Category, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	want := make(map[string]bool, len(titles))
	for _, t := range titles {
		want[t] = true
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	all, err := s.l.readCategories()
	if err != nil {
		return nil, err
	}
	var out []model.Category
	for _, c := range all {
		if want[c.Title] {
			out = append(out, c)
		}
	}
	return out, nil
}

// New builds unsaved categories.
func (s *Categories) New(titles []string) []model.Category {
	out := make([]model.Category, len(titles))
	for i, t := range titles {
		out[i] = model.Category{Title: t}
	}
	return out
}

// SaveAll appends the unsaved categories in one write and assigns their ids.
// Categories that already have an id are returned unchanged.
func (s *Categories) SaveAll(_ context.Context, cats []model.Category) ([]model.Category, error) {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	now := s.l.timestamp()
	out := make([]model.Category, len(cats))
	var recs []categoryRecord
	for i, c := range cats {
		if !c.IsSaved() {
			c.ID = id.New()
			c.CreatedAt = now
			c.UpdatedAt = now
			recs = append(recs, marshalCategory(c))
		}
		out[i] = c
	}

	if err := appendRecords(s.l.path(CategoriesFile), recs); err != nil {
		return nil, fmt.Errorf("saving categories: %w", err)
	}
	return out, nil
}

// ListCategories returns every stored category in file order.
func (l *Ledger) ListCategories(_ context.Context) ([]model.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readCategories()
}

func (l *Ledger) readCategories() ([]model.Category, error) {
	recs, err := readRecords[categoryRecord](l.path(CategoriesFile))
	if err != nil {
		return nil, err
	}
	cats := make([]model.Category, 0, len(recs))
	for i, r := range recs {
		c, err := unmarshalCategory(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", CategoriesFile, i+2, err)
		}
		cats = append(cats, c)
	}
	return cats, nil
}
