package tree

import (
	"github.com/aretw0/blocks/pkg/domain"
)

// Op names a structural operation.
type Op string

const (
	OpInsertBefore Op = "insertBefore"
	OpInsertAfter  Op = "insertAfter"
	OpAppendChild  Op = "appendChild"
	OpRemove       Op = "remove"
)

// Apply dispatches one of the insertion operations by name.
func (t *Tree) Apply(op Op, blueprint *domain.Node, path domain.Path) (domain.Path, error) {
	switch op {
	case OpInsertBefore:
		return t.InsertBefore(blueprint, path)
	case OpInsertAfter:
		return t.InsertAfter(blueprint, path)
	case OpAppendChild:
		return t.AppendChild(blueprint, path)
	default:
		return nil, &UnknownOpError{Op: op}
	}
}

// InsertBefore attaches blueprint as the sibling immediately preceding the
// node at path and returns the blueprint's new path.
func (t *Tree) InsertBefore(blueprint *domain.Node, path domain.Path) (domain.Path, error) {
	return t.insertSibling(blueprint, path, 0)
}

// InsertAfter attaches blueprint as the sibling immediately following the
// node at path and returns the blueprint's new path.
func (t *Tree) InsertAfter(blueprint *domain.Node, path domain.Path) (domain.Path, error) {
	return t.insertSibling(blueprint, path, 1)
}

// AppendChild attaches blueprint as the last child of the node at path.
func (t *Tree) AppendChild(blueprint *domain.Node, path domain.Path) (domain.Path, error) {
	target, err := t.Lookup(path)
	if err != nil {
		return nil, err
	}
	if err := t.prepare(blueprint, true); err != nil {
		return nil, err
	}
	return t.attach(target, path, blueprint, target.Len()), nil
}

// InsertAt attaches node under the node at parentPath at the given position,
// keeping every key the subtree already carries. It is the replay primitive
// used to apply an operation recorded elsewhere; keys still collide with
// DuplicateKeyError.
func (t *Tree) InsertAt(node *domain.Node, parentPath domain.Path, position int) (domain.Path, error) {
	parent, err := t.Lookup(parentPath)
	if err != nil {
		return nil, err
	}
	if err := t.prepare(node, false); err != nil {
		return nil, err
	}
	return t.attach(parent, parentPath, node, position), nil
}

// DeepRemove detaches the node at path, then every Grid.Col or Grid.Row
// ancestor left without children, stopping at a Grid or at the root.
// The returned chain starts with the target; the outermost removed
// wrapper comes last.
func (t *Tree) DeepRemove(path domain.Path) ([]*domain.Node, error) {
	if path.IsRoot() {
		return nil, ErrRemoveRoot
	}
	target, err := t.Lookup(path)
	if err != nil {
		return nil, err
	}

	removed := []*domain.Node{target}
	parent := target.Parent()
	t.detach(parent, target)

	cur := parent
	for cur != t.root && isWrapper(cur) && cur.Len() == 0 {
		up := cur.Parent()
		if up == nil {
			break
		}
		t.detach(up, cur)
		removed = append(removed, cur)
		cur = up
	}
	return removed, nil
}

// RemovedPath returns the path of the outermost node of a DeepRemove chain,
// given the path the removal was issued at.
func RemovedPath(path domain.Path, removed []*domain.Node) domain.Path {
	if len(removed) <= 1 {
		return path.Clone()
	}
	return path.Up(len(removed) - 1).Clone()
}

func (t *Tree) insertSibling(blueprint *domain.Node, path domain.Path, offset int) (domain.Path, error) {
	if path.IsRoot() {
		return nil, ErrRootHasNoSiblings
	}
	target, err := t.Lookup(path)
	if err != nil {
		return nil, err
	}
	parent := target.Parent()
	if err := t.prepare(blueprint, true); err != nil {
		return nil, err
	}
	return t.attach(parent, path.Parent(), blueprint, parent.IndexOf(target.Key)+offset), nil
}

// prepare runs every check an insertion needs before the tree is touched.
// With fresh set, the subtree root always gets a new key; descendants
// without a key get one either way.
func (t *Tree) prepare(blueprint *domain.Node, fresh bool) error {
	if blueprint == nil {
		return &domain.DetachedNodeError{}
	}
	if blueprint.Parent() != nil {
		return ErrAttached
	}
	if fresh || blueprint.Key == "" {
		blueprint.Key = t.NewKey()
	}

	seen := make(map[string]struct{})
	var err error
	blueprint.Walk(func(n *domain.Node) bool {
		if err != nil {
			return false
		}
		if n.Key == "" {
			parent := n.Parent()
			n.Key = t.NewKey()
			if parent != nil {
				// Re-slot under the new key at the same position.
				pos := parent.IndexOf("")
				parent.DetachChild("")
				parent.AttachChild(n, pos)
			}
		}
		if _, dup := seen[n.Key]; dup || t.Has(n.Key) {
			err = &domain.DuplicateKeyError{Key: n.Key}
			return false
		}
		seen[n.Key] = struct{}{}
		return true
	})
	return err
}

func (t *Tree) attach(parent *domain.Node, parentPath domain.Path, n *domain.Node, position int) domain.Path {
	parent.AttachChild(n, position)
	t.indexSubtree(n)
	return parentPath.Child(n.Key)
}

func (t *Tree) detach(parent, n *domain.Node) {
	parent.DetachChild(n.Key)
	t.unindexSubtree(n)
}

func isWrapper(n *domain.Node) bool {
	return n.Component == domain.ComponentRow || n.Component == domain.ComponentCol
}

// UnknownOpError reports an operation name Apply does not know.
type UnknownOpError struct {
	Op Op
}

func (e *UnknownOpError) Error() string {
	return "unknown tree operation: " + string(e.Op)
}
