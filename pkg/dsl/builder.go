package dsl

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/grid"
	"github.com/aretw0/blocks/pkg/tree"
)

// PageBuilder assembles a page around a root grid.
type PageBuilder struct {
	page domain.Page
	root *NodeBuilder
}

// Page starts a page whose schema is root.
func Page(id string, root *NodeBuilder) *PageBuilder {
	return &PageBuilder{
		page: domain.Page{ID: id},
		root: root,
	}
}

// Title sets the page title.
func (b *PageBuilder) Title(title string) *PageBuilder {
	b.page.Title = title
	return b
}

// Version sets the stored version.
func (b *PageBuilder) Version(v int64) *PageBuilder {
	b.page.Version = v
	return b
}

// Build returns the page once its tree passes the same checks a stored page
// does: unique keys and a well-formed grid layout.
func (b *PageBuilder) Build() (*domain.Page, error) {
	if b.root == nil {
		return nil, errors.New("page has no root")
	}
	root := b.root.Build()
	if _, err := tree.New(root); err != nil {
		return nil, fmt.Errorf("invalid page %s: %w", b.page.ID, err)
	}
	if err := grid.Validate(root); err != nil {
		return nil, fmt.Errorf("invalid page %s: %w", b.page.ID, err)
	}
	page := b.page
	page.Root = root
	page.UpdatedAt = time.Now().UTC()
	return &page, nil
}

// MustBuild is Build for tests and fixtures.
func (b *PageBuilder) MustBuild() *domain.Page {
	page, err := b.Build()
	if err != nil {
		panic(err)
	}
	return page
}
