package numerator

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Generator. Strategies are irrelevant: every
// number is allocated under one mutex.
type Memory struct {
	mu   sync.Mutex
	seqs map[string]int64
}

// NewMemory creates an empty in-memory generator.
func NewMemory() *Memory {
	return &Memory{seqs: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (m *Memory) GetNextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	key := cfg.Key(period)

	m.mu.Lock()
	m.seqs[key]++
	num := m.seqs[key]
	m.mu.Unlock()

	return cfg.Format(period, num), nil
}

// SetNextNumber implements Generator. The next call returns value.
func (m *Memory) SetNextNumber(_ context.Context, cfg Config, period time.Time, value int64) error {
	m.mu.Lock()
	m.seqs[cfg.Key(period)] = value - 1
	m.mu.Unlock()
	return nil
}

var _ Generator = (*Memory)(nil)
