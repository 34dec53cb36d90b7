package id

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a fresh random identity.
func New() uuid.UUID {
	return uuid.New()
}

// Format renders an identity for storage. uuid.Nil renders as "" so a missing
// reference is an empty cell rather than a string of zeros.
func Format(u uuid.UUID) string {
	if u == uuid.Nil {
		return ""
	}
	return u.String()
}

// Parse parses a stored identity. An empty string yields uuid.Nil.
func Parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return u, nil
}

// Required parses a stored identity that must be present.
func Required(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("missing id")
	}
	return Parse(s)
}
