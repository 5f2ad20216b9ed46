package tree

import (
	"slices"

	"github.com/aretw0/blocks/pkg/domain"
)

// Resolve returns the path from the root down to n by walking parent links.
// At every level the parent must still hold n under n's key; otherwise n is
// reported as detached.
func (t *Tree) Resolve(n *domain.Node) (domain.Path, error) {
	if n == nil {
		return nil, &domain.DetachedNodeError{}
	}
	keys := make([]string, 0, 8)
	cur := n
	for steps := 0; cur != t.root; steps++ {
		parent := cur.Parent()
		if parent == nil || steps > len(t.index) {
			return nil, &domain.DetachedNodeError{Key: n.Key}
		}
		held, ok := parent.Child(cur.Key)
		if !ok || held != cur {
			return nil, &domain.DetachedNodeError{Key: n.Key}
		}
		keys = append(keys, cur.Key)
		cur = parent
	}
	slices.Reverse(keys)
	return domain.Path(keys), nil
}

// Lookup returns the node addressed by path.
func (t *Tree) Lookup(path domain.Path) (*domain.Node, error) {
	cur := t.root
	for _, key := range path {
		next, ok := cur.Child(key)
		if !ok {
			return nil, &domain.PathNotFoundError{Path: path.Clone()}
		}
		cur = next
	}
	return cur, nil
}

// MustResolve is Resolve for callers that hold a node they know is attached.
func (t *Tree) MustResolve(n *domain.Node) domain.Path {
	p, err := t.Resolve(n)
	if err != nil {
		panic(err)
	}
	return p
}
