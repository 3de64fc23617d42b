package memory

import (
	"context"
	"sync"

	"orderflow/internal/core/tx"
)

type restorable interface {
	snapshot() any
	restore(v any)
}

// TxManager serializes transactions over the registered stores and restores
// their snapshot when fn fails. Writes made outside RunInTransaction are
// not isolated.
type TxManager struct {
	mu     sync.Mutex
	stores []restorable
}

// NewTxManager creates a manager over stores. Every argument must be a
// *Store; others are ignored.
func NewTxManager(stores ...any) *TxManager {
	m := &TxManager{}
	for _, s := range stores {
		if r, ok := s.(restorable); ok {
			m.stores = append(m.stores, r)
		}
	}
	return m
}

type txKey struct{}

// RunInTransaction implements tx.Manager. Nested calls join the outer one.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snaps := make([]any, len(m.stores))
	for i, s := range m.stores {
		snaps[i] = s.snapshot()
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		for i, s := range m.stores {
			s.restore(snaps[i])
		}
		return err
	}
	return nil
}

var _ tx.Manager = (*TxManager)(nil)
