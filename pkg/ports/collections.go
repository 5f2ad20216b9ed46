package ports

import (
	"context"

	"github.com/aretw0/blocks/pkg/domain"
)

// CollectionService manages the collections blocks bind to.
type CollectionService interface {
	// CreateOrUpdateCollection stores the definition. A definition without a
	// name gets a generated one; the stored collection is returned.
	CreateOrUpdateCollection(ctx context.Context, def map[string]any) (domain.Collection, error)

	// CreateCollectionField adds a field to the named collection. A field
	// without a name gets a generated one.
	// Returns domain.ErrCollectionNotFound for an unknown collection.
	CreateCollectionField(ctx context.Context, collectionName string, def map[string]any) (domain.Field, error)

	// ListCollections returns every collection ordered by name.
	ListCollections(ctx context.Context) ([]domain.Collection, error)

	// GetCollection returns the named collection.
	GetCollection(ctx context.Context, name string) (domain.Collection, error)
}
