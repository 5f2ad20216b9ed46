package ports

import (
	"context"

	"github.com/aretw0/blocks/pkg/domain"
)

// Record describes one structural change handed to a SchemaPersister.
type Record struct {
	// Op is the operation the tree applied: insertBefore, insertAfter,
	// appendChild or remove.
	Op string `json:"op"`
	// Path addresses the inserted node, or the outermost removed node.
	Path domain.Path `json:"path"`
	// Position is the node's index among its siblings when it was inserted
	// or before it was removed.
	Position int `json:"position"`
	// Node is the inserted subtree, or the outermost removed node.
	Node *domain.Node `json:"schema,omitempty"`
}

// SchemaPersister durably stores the changes a session applies to its tree.
//
// Calls arrive after the local tree has changed. Implementations should be
// safe to retry: re-creating a node that exists, or removing one that is
// already gone, succeeds.
type SchemaPersister interface {
	CreateSchema(ctx context.Context, pageID string, rec Record) error
	RemoveSchema(ctx context.Context, pageID string, rec Record) error
}
