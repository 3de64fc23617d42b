// Package memory provides process-local document stores. Documents are kept
// as JSON so that callers never share pointers with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/domain"
)

// Store is a DocumentStore over a map. D is the document struct, T its
// pointer type.
type Store[D any, T interface {
	*D
	domain.Document
}] struct {
	kind string

	mu    sync.RWMutex
	docs  map[id.ID][]byte
	order []id.ID
}

// NewStore creates an empty store for documents of kind.
func NewStore[D any, T interface {
	*D
	domain.Document
}](kind string) *Store[D, T] {
	return &Store[D, T]{
		kind: kind,
		docs: make(map[id.ID][]byte),
	}
}

func (s *Store[D, T]) decode(raw []byte) (T, error) {
	doc := T(new(D))
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.kind, err)
	}
	return doc, nil
}

// Get implements domain.DocumentStore.
func (s *Store[D, T]) Get(ctx context.Context, docID id.ID) (T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.docs[docID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.NewNotFound(s.kind, docID.String())
	}
	return s.decode(raw)
}

// List implements domain.DocumentStore. Documents come back in creation order.
func (s *Store[D, T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	if err := ctx.Err(); err != nil {
		return domain.ListResult[T]{}, err
	}
	s.mu.RLock()
	raws := make([][]byte, 0, len(s.order))
	for _, docID := range s.order {
		raws = append(raws, s.docs[docID])
	}
	s.mu.RUnlock()

	matched := make([]T, 0)
	for _, raw := range raws {
		doc, err := s.decode(raw)
		if err != nil {
			return domain.ListResult[T]{}, err
		}
		ok, err := match(f, doc)
		if err != nil {
			return domain.ListResult[T]{}, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	res := domain.ListResult[T]{TotalCount: int64(len(matched)), Limit: f.Limit, Offset: f.Offset}
	start := min(max(f.Offset, 0), len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, end)
	}
	res.Items = matched[start:end]
	return res, nil
}

func match(f domain.ListFilter, doc domain.Document) (bool, error) {
	if !f.MatchStatus(doc.StatusName()) {
		return false, nil
	}
	if !id.IsNil(f.ParentID) && doc.ParentID() != f.ParentID {
		return false, nil
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(doc.GetNumber()), strings.ToLower(f.Search)) {
		return false, nil
	}
	return f.Expr.Match(doc)
}

// Create implements domain.DocumentStore.
func (s *Store[D, T]) Create(ctx context.Context, doc T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc.SetVersion(1)
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.GetID()]; exists {
		return apperror.NewDuplicate(s.kind, "id", doc.GetID().String())
	}
	s.docs[doc.GetID()] = raw
	s.order = append(s.order, doc.GetID())
	return nil
}

// Update implements domain.DocumentStore.
func (s *Store[D, T]) Update(ctx context.Context, doc T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[doc.GetID()]
	if !ok {
		return apperror.NewNotFound(s.kind, doc.GetID().String())
	}
	var stored struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("decode %s: %w", s.kind, err)
	}
	if stored.Version != doc.GetVersion() {
		return apperror.NewConcurrentModification(s.kind, doc.GetID().String())
	}

	doc.SetVersion(stored.Version + 1)
	next, err := json.Marshal(doc)
	if err != nil {
		doc.SetVersion(stored.Version)
		return fmt.Errorf("encode %s: %w", s.kind, err)
	}
	s.docs[doc.GetID()] = next
	return nil
}

type snapshot struct {
	docs  map[id.ID][]byte
	order []id.ID
}

func (s *Store[D, T]) snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make(map[id.ID][]byte, len(s.docs))
	for k, v := range s.docs {
		docs[k] = v
	}
	return snapshot{docs: docs, order: append([]id.ID(nil), s.order...)}
}

func (s *Store[D, T]) restore(v any) {
	snap := v.(snapshot)
	s.mu.Lock()
	s.docs = snap.docs
	s.order = snap.order
	s.mu.Unlock()
}
