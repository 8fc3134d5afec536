package service

import (
	"context"
	"sync"

	"github.com/leadgrid/leadgrid/internal/domain"
)

// MemoryCounterStore is a mutex-guarded in-memory CounterStore.
//
// Used in tests and single-process development mode. It mirrors the
// database store's semantics: Ensure is idempotent, Increment is atomic
// with respect to concurrent callers, and Read of an absent key is 0.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[counterKey]int
}

type counterKey struct {
	tenantID int64
	metric   domain.Metric
	period   string
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[counterKey]int)}
}

func (s *MemoryCounterStore) Ensure(_ context.Context, tenantID int64, metric domain.Metric, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey{tenantID, metric, period}
	if _, ok := s.counters[key]; !ok {
		s.counters[key] = 0
	}
	return nil
}

func (s *MemoryCounterStore) Increment(_ context.Context, tenantID int64, metric domain.Metric, period string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counterKey{tenantID, metric, period}] += amount
	return nil
}

func (s *MemoryCounterStore) Read(_ context.Context, tenantID int64, metric domain.Metric, period string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[counterKey{tenantID, metric, period}], nil
}

// Len returns the number of counter rows, for test assertions.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
