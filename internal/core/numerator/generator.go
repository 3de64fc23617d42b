package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// Pattern: PREFIX-YEAR-XXXXX (e.g., PO-2026-00001).
type Generator interface {
	// GetNextNumber generates the next document number for period.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber moves the sequence (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
