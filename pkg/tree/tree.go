// Package tree owns a page's schema tree: it resolves nodes to paths, looks
// paths back up, and applies the structural operations (insert before,
// insert after, append child, deep remove) while keeping node keys unique
// across the whole tree.
package tree

import (
	"errors"
	"fmt"

	"github.com/aretw0/blocks/pkg/domain"
)

var (
	// ErrRootHasNoSiblings is returned when a sibling insertion targets the root.
	ErrRootHasNoSiblings = errors.New("root node has no siblings")

	// ErrRemoveRoot is returned when a removal targets the root.
	ErrRemoveRoot = errors.New("root node cannot be removed")

	// ErrAttached is returned when a blueprint already has a parent.
	ErrAttached = errors.New("blueprint is already attached")
)

// Tree is a schema tree plus an index of every key it contains.
// It is not safe for concurrent use; callers serialise access.
type Tree struct {
	root   *domain.Node
	index  map[string]*domain.Node
	newKey domain.KeyGenerator
}

// Option configures a Tree.
type Option func(*Tree)

// WithKeyGenerator replaces the generator used for fresh keys.
func WithKeyGenerator(gen domain.KeyGenerator) Option {
	return func(t *Tree) {
		t.newKey = gen
	}
}

// New adopts root as the tree root. Nodes without a key get a fresh one.
// It fails with a DuplicateKeyError if two nodes share a key.
func New(root *domain.Node, opts ...Option) (*Tree, error) {
	t := &Tree{
		root:   root,
		index:  make(map[string]*domain.Node),
		newKey: domain.NewKey,
	}
	for _, opt := range opts {
		opt(t)
	}
	if root == nil {
		return nil, fmt.Errorf("tree root cannot be nil")
	}
	if root.Parent() != nil {
		return nil, ErrAttached
	}
	if root.Key == "" {
		root.Key = t.newKey()
	}

	var err error
	root.Walk(func(n *domain.Node) bool {
		if err != nil {
			return false
		}
		if _, exists := t.index[n.Key]; exists {
			err = &domain.DuplicateKeyError{Key: n.Key}
			return false
		}
		t.index[n.Key] = n
		return true
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the tree root.
func (t *Tree) Root() *domain.Node {
	return t.root
}

// Len reports how many nodes the tree holds, root included.
func (t *Tree) Len() int {
	return len(t.index)
}

// Has reports whether key is used anywhere in the tree.
func (t *Tree) Has(key string) bool {
	_, ok := t.index[key]
	return ok
}

// Node returns the attached node with the given key.
func (t *Tree) Node(key string) (*domain.Node, bool) {
	n, ok := t.index[key]
	return n, ok
}

// NewKey returns a fresh key that is not yet used in the tree.
func (t *Tree) NewKey() string {
	for {
		k := t.newKey()
		if !t.Has(k) {
			return k
		}
	}
}

// Snapshot returns a detached deep copy of the whole tree.
func (t *Tree) Snapshot() *domain.Node {
	return t.root.Clone()
}

func (t *Tree) indexSubtree(n *domain.Node) {
	n.Walk(func(c *domain.Node) bool {
		t.index[c.Key] = c
		return true
	})
}

func (t *Tree) unindexSubtree(n *domain.Node) {
	n.Walk(func(c *domain.Node) bool {
		delete(t.index, c.Key)
		return true
	})
}
