// Package domain provides storage contracts shared by every staged document.
package domain

import (
	"context"

	"orderflow/internal/core/id"
	"orderflow/internal/domain/filter"
)

// Document is implemented by every staged document (pointer receivers).
type Document interface {
	GetID() id.ID
	GetNumber() string
	SetNumber(n string)
	GetVersion() int
	SetVersion(v int)

	// Kind is the stable document type name ("purchase_order", "picklist", ...).
	Kind() string

	// StatusName is the canonical serialization of the stored status.
	StatusName() string

	// ParentID is the upstream document this one was created from, or Nil.
	ParentID() id.ID
}

// ListFilter contains filtering options for list operations.
type ListFilter struct {
	// Statuses keeps documents whose StatusName is in the list
	Statuses []string

	// ParentID keeps documents created from the given upstream document
	ParentID id.ID

	// Search matches the document number (substring)
	Search string

	// Expr is an optional compiled CEL predicate
	Expr *filter.Expr

	// Pagination
	Limit  int
	Offset int
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// DocumentStore is the persistence contract of the pipeline.
// Documents are never deleted; cancellation is a status.
type DocumentStore[T Document] interface {
	// Get returns NOT_FOUND when the document does not exist
	Get(ctx context.Context, docID id.ID) (T, error)

	// List returns documents ordered by creation (oldest first)
	List(ctx context.Context, f ListFilter) (ListResult[T], error)

	// Create inserts a new document at version 1
	Create(ctx context.Context, doc T) error

	// Update replaces the document if its version matches the stored one,
	// then advances the version. A mismatch is CONCURRENT_MODIFICATION.
	Update(ctx context.Context, doc T) error
}

// MatchStatus reports whether status passes the Statuses filter.
func (f ListFilter) MatchStatus(status string) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ListAll pages through store until every matching document is collected.
func ListAll[T Document](ctx context.Context, store DocumentStore[T], f ListFilter) ([]T, error) {
	const page = 200
	f.Limit = page
	f.Offset = 0

	var out []T
	for {
		res, err := store.List(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if len(res.Items) < page {
			return out, nil
		}
		f.Offset += page
	}
}
