package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is a persisted transaction category. Title is the reconciliation key.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSaved reports whether the category has been assigned an identity by a store.
func (c Category) IsSaved() bool {
	return c.ID != uuid.Nil
}
