package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeOutcome TransactionType = "outcome"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeOutcome
}

// Transaction is a persisted transaction record.
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Type       TransactionType `json:"type"`
	Value      string          `json:"value"` // kept as imported, not validated
	CategoryID uuid.UUID       `json:"category_id"`
	Category   *Category       `json:"category"` // nil = uncategorized
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsSaved reports whether the transaction has been assigned an identity by a store.
func (t Transaction) IsSaved() bool {
	return t.ID != uuid.Nil
}

// Draft is an unsaved transaction. Category is nil when the transaction has no
// category; when set it must already be saved.
type Draft struct {
	Title    string
	Type     TransactionType
	Value    string
	Category *Category
}
