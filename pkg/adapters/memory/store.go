package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/femto/pkg/domain"
)

// Store implements ports.ProgramStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Program
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Program),
	}
}

// Save persists a copy of the program in memory.
func (s *Store) Save(ctx context.Context, program *domain.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[program.ID] = *program
	return nil
}

// Load retrieves a copy of the program so callers can't mutate the store.
func (s *Store) Load(ctx context.Context, id string) (*domain.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	program, ok := s.data[id]
	if !ok {
		return nil, domain.ErrProgramNotFound
	}
	return &program, nil
}

// Delete removes the program.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored program IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
