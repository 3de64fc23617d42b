package pipeline

import (
	"context"

	"orderflow/internal/core/id"
	"orderflow/internal/domain"
	"orderflow/internal/domain/documents"
)

// transition loads one document, runs fire on it and stores the result.
func transition[T domain.Document](
	ctx context.Context,
	s *Service,
	operation string,
	store domain.DocumentStore[T],
	docID id.ID,
	fire func(doc T) (documents.Transition, error),
) (T, error) {
	var zero T

	doc, err := store.Get(ctx, docID)
	if err != nil {
		return zero, err
	}
	t, err := fire(doc)
	if err != nil {
		return zero, err
	}

	cs := newChangeSet(operation)
	stageUpdate(ctx, cs, store, doc)
	cs.record(doc, t)
	if err := s.apply(ctx, cs); err != nil {
		return zero, err
	}
	return doc, nil
}

// mutate is transition for line edits that fire no status action.
func mutate[T domain.Document](
	ctx context.Context,
	s *Service,
	operation string,
	store domain.DocumentStore[T],
	docID id.ID,
	edit func(doc T) error,
) (T, error) {
	var zero T

	doc, err := store.Get(ctx, docID)
	if err != nil {
		return zero, err
	}
	if err := edit(doc); err != nil {
		return zero, err
	}

	cs := newChangeSet(operation)
	stageUpdate(ctx, cs, store, doc)
	if err := s.apply(ctx, cs); err != nil {
		return zero, err
	}
	return doc, nil
}

// children lists every document of store created from parentID.
func children[T domain.Document](ctx context.Context, store domain.DocumentStore[T], parentID id.ID) ([]T, error) {
	return domain.ListAll(ctx, store, domain.ListFilter{ParentID: parentID})
}
