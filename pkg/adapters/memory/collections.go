package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/blocks/pkg/catalog"
	"github.com/aretw0/blocks/pkg/domain"
)

// Collections implements ports.CollectionService in memory.
type Collections struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	newKey  domain.KeyGenerator
	data    map[string]domain.Collection
}

// CollectionsOption configures Collections.
type CollectionsOption func(*Collections)

// WithCatalog sets the catalog whose field interfaces are accepted.
func WithCatalog(c *catalog.Catalog) CollectionsOption {
	return func(s *Collections) {
		s.catalog = c
	}
}

// WithKeyGenerator sets the generator for collection, field and key names.
func WithKeyGenerator(gen domain.KeyGenerator) CollectionsOption {
	return func(s *Collections) {
		s.newKey = gen
	}
}

// NewCollections creates an empty collection service.
func NewCollections(opts ...CollectionsOption) *Collections {
	s := &Collections{
		newKey: domain.NewKey,
		data:   make(map[string]domain.Collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.MustDefault()
	}
	return s
}

// CreateOrUpdateCollection stores def. Updating an existing collection
// replaces its title and appends any fields the definition carries.
func (s *Collections) CreateOrUpdateCollection(ctx context.Context, def map[string]any) (domain.Collection, error) {
	c, err := s.catalog.NewCollection(def, s.newKey)
	if err != nil {
		return domain.Collection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[c.Name]; ok {
		existing.Title = c.Title
		existing.Fields = append(existing.Fields, c.Fields...)
		c = existing
	}
	s.data[c.Name] = c
	return cloneCollection(c), nil
}

// CreateCollectionField adds a field to the named collection.
func (s *Collections) CreateCollectionField(ctx context.Context, collectionName string, def map[string]any) (domain.Field, error) {
	s.mu.RLock()
	_, ok := s.data[collectionName]
	s.mu.RUnlock()
	if !ok {
		return domain.Field{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collectionName)
	}

	f, err := s.catalog.NewField(def, s.newKey)
	if err != nil {
		return domain.Field{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[collectionName]
	if !ok {
		return domain.Field{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collectionName)
	}
	c.Fields = append(c.Fields, f)
	s.data[collectionName] = c
	return f, nil
}

// ListCollections returns every collection ordered by name.
func (s *Collections) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Collection, 0, len(s.data))
	for _, c := range s.data {
		out = append(out, cloneCollection(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetCollection returns the named collection.
func (s *Collections) GetCollection(ctx context.Context, name string) (domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[name]
	if !ok {
		return domain.Collection{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return cloneCollection(c), nil
}

func cloneCollection(c domain.Collection) domain.Collection {
	fields := make([]domain.Field, len(c.Fields))
	for i, f := range c.Fields {
		f.UISchema = domain.CloneProps(f.UISchema)
		fields[i] = f
	}
	c.Fields = fields
	return c
}
