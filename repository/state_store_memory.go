package repository

import (
	"context"
	"sync"

	"debt-planner/domain"
)

// MemoryStateStore keeps the state in process memory.
type MemoryStateStore struct {
	mu    sync.Mutex
	state domain.PlannerState
	saves int
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		state: domain.PlannerState{Debts: []domain.Debt{}},
	}
}

func (s *MemoryStateStore) Load(ctx context.Context) (domain.PlannerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

func (s *MemoryStateStore) Save(ctx context.Context, state domain.PlannerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStateStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
