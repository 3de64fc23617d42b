// Package entity holds the fields every staged document shares.
package entity

import (
	"context"
	"time"

	"orderflow/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without storage access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseDocument contains the header fields of every staged document.
type BaseDocument struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `json:"id"`

	// Number is the human-readable document number, PREFIX-YEAR-SEQ
	Number string `json:"documentNo"`

	// Version for optimistic locking (incremented by the store on each update)
	Version int `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Comment is an optional user comment
	Comment string `json:"comment,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument(now time.Time) BaseDocument {
	now = now.UTC()
	return BaseDocument{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseDocument) Touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

// GetID returns the document ID.
func (b *BaseDocument) GetID() id.ID { return b.ID }

// GetNumber returns the document number.
func (b *BaseDocument) GetNumber() string { return b.Number }

// SetNumber assigns the document number (once, on creation).
func (b *BaseDocument) SetNumber(n string) { b.Number = n }

// GetVersion returns the optimistic lock version.
func (b *BaseDocument) GetVersion() int { return b.Version }

// SetVersion updates the version number (used by stores after a write).
func (b *BaseDocument) SetVersion(v int) { b.Version = v }
