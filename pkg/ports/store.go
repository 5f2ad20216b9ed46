package ports

import (
	"context"

	"github.com/aretw0/blocks/pkg/domain"
)

// PageStore defines the interface for persisting pages.
type PageStore interface {
	// Save persists the page under its ID, replacing any previous copy.
	Save(ctx context.Context, page *domain.Page) error

	// Load retrieves the page with the given ID.
	// Returns domain.ErrPageNotFound if the page does not exist.
	Load(ctx context.Context, pageID string) (*domain.Page, error)

	// Delete removes the page. Deleting a missing page is not an error.
	Delete(ctx context.Context, pageID string) error

	// List returns the IDs of every stored page.
	List(ctx context.Context) ([]string, error)
}
