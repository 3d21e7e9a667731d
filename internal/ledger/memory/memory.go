package memory

import (
	"context"
	"sync"

	"journal/internal/core"
	"journal/internal/ledger"
)

// Store keeps the journal in process memory. It is used for development and tests.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	saves int
}

var _ ledger.Store = (*Store)(nil)

func New(seed ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), seed...)}
}

func (s *Store) Load(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.items...), nil
}

func (s *Store) Save(_ context.Context, records []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Transaction(nil), records...)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
