package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/blocks/pkg/domain"
)

// Store implements ports.PageStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Page
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Page),
	}
}

// Save persists a deep copy of the page.
func (s *Store) Save(ctx context.Context, page *domain.Page) error {
	cp := page.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[page.ID] = cp
	return nil
}

// Load returns a copy so callers can't mutate the stored tree by pointer.
func (s *Store) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.data[pageID]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	return page.Clone(), nil
}

// Delete removes the page.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pageID)
	return nil
}

// List returns stored page IDs in order.
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
