// Package id provides UUIDv7 identifiers for documents and their lines.
// UUIDv7 is time-ordered, so documents sort by creation time.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// ParseOptional treats an empty string as Nil. Used for optional references
// such as a purchase order's requisition.
func ParseOptional(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, nil
	}
	return Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// String renders v, or "" for Nil.
func String(v ID) string {
	if v == uuid.Nil {
		return ""
	}
	return v.String()
}
