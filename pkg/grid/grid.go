// Package grid keeps page content inside the Grid → Grid.Row → Grid.Col
// layout. It classifies insertion targets and wraps loose blueprints into
// a fresh row/column pair before they reach the tree.
package grid

import (
	"errors"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/tree"
)

// IsGrid reports whether n is a Grid container.
func IsGrid(n *domain.Node) bool {
	return n != nil && n.Component == domain.ComponentGrid
}

// IsRowOrCol reports whether n is a Grid.Row or Grid.Col wrapper.
func IsRowOrCol(n *domain.Node) bool {
	return n != nil && (n.Component == domain.ComponentRow || n.Component == domain.ComponentCol)
}

// IsGridBlock reports whether n is the sole content of a 1x1 grid cell:
// its parent is a Grid.Col holding only n, and that column is the only
// column of its row.
func IsGridBlock(n *domain.Node) bool {
	if n == nil {
		return false
	}
	col := n.Parent()
	if col == nil || col.Component != domain.ComponentCol || col.Len() != 1 {
		return false
	}
	row := col.Parent()
	return row != nil && row.Len() <= 1
}

// Wrap returns a new Grid.Row holding a new Grid.Col holding blueprint.
// Row and column get fresh keys; blueprint keeps its key unless it has none.
func Wrap(blueprint *domain.Node, newKey domain.KeyGenerator) *domain.Node {
	if newKey == nil {
		newKey = domain.NewKey
	}
	if blueprint.Key == "" {
		blueprint.Key = newKey()
	}
	row := domain.NewNode(newKey(), domain.KindVoid, domain.ComponentRow)
	col := domain.NewNode(newKey(), domain.KindVoid, domain.ComponentCol)
	row.AttachChild(col, 0)
	col.AttachChild(blueprint, 0)
	return row
}

// Insertion is a planned structural operation.
type Insertion struct {
	Op tree.Op
	// Path addresses the node the operation is applied at.
	Path domain.Path
	// Node is what gets attached: the blueprint itself or its row wrapper.
	Node *domain.Node
	// Content is the blueprint, whether or not it was wrapped.
	Content *domain.Node
	Wrapped bool
}

// WrapCol returns a new Grid.Col holding blueprint.
func WrapCol(blueprint *domain.Node, newKey domain.KeyGenerator) *domain.Node {
	if newKey == nil {
		newKey = domain.NewKey
	}
	if blueprint.Key == "" {
		blueprint.Key = newKey()
	}
	col := domain.NewNode(newKey(), domain.KindVoid, domain.ComponentCol)
	col.AttachChild(blueprint, 0)
	return col
}

// Plan decides how blueprint is inserted relative to target, which lives at
// path. action is what the caller asked for.
//
//   - target is a Grid: the wrapped blueprint is appended to it.
//   - target is a grid block: the operation moves up to the row, and the
//     blueprint is wrapped so it becomes a sibling row. Appending is read
//     as inserting after.
//   - target is a Grid.Row: a wrapped sibling row, or a new column when
//     appending.
//   - target is a Grid.Col: a sibling column holding the blueprint, or the
//     bare blueprint when appending.
//   - otherwise the blueprint goes in unwrapped, as asked.
func Plan(target *domain.Node, path domain.Path, blueprint *domain.Node, action tree.Op, newKey domain.KeyGenerator) (Insertion, error) {
	if target == nil || blueprint == nil {
		return Insertion{}, errors.New("grid plan needs a target and a blueprint")
	}
	in := Insertion{
		Op:      action,
		Path:    path.Clone(),
		Node:    blueprint,
		Content: blueprint,
	}
	anchor := target
	switch {
	case IsGrid(target):
		in.Op = tree.OpAppendChild
		in.Node, in.Wrapped = Wrap(blueprint, newKey), true
	case IsGridBlock(target):
		if action == tree.OpAppendChild {
			in.Op = tree.OpInsertAfter
		}
		in.Path = path.Up(2).Clone()
		anchor = target.Parent().Parent()
		in.Node, in.Wrapped = Wrap(blueprint, newKey), true
	case target.Component == domain.ComponentRow:
		if action == tree.OpAppendChild {
			in.Node, in.Wrapped = WrapCol(blueprint, newKey), true
			break
		}
		in.Node, in.Wrapped = Wrap(blueprint, newKey), true
	case target.Component == domain.ComponentCol:
		if action != tree.OpAppendChild {
			in.Node, in.Wrapped = WrapCol(blueprint, newKey), true
		}
	}

	parent := anchor
	if in.Op != tree.OpAppendChild {
		parent = anchor.Parent()
	}
	if err := Accepts(parent, in.Node); err != nil {
		return Insertion{}, err
	}
	return in, nil
}

// Accepts reports whether child may be placed directly under parent. A nil
// parent accepts anything; the tree itself rejects siblings of the root.
func Accepts(parent, child *domain.Node) error {
	if parent == nil {
		return nil
	}
	switch {
	case IsGrid(parent) && child.Component != domain.ComponentRow:
		return &LayoutError{Parent: parent.Key, Child: child.Key, Want: domain.ComponentRow}
	case parent.Component == domain.ComponentRow && child.Component != domain.ComponentCol:
		return &LayoutError{Parent: parent.Key, Child: child.Key, Want: domain.ComponentCol}
	}
	return nil
}

// Validate checks that no Grid holds anything but rows, and that no row
// holds anything but columns.
func Validate(root *domain.Node) error {
	var err error
	root.Walk(func(n *domain.Node) bool {
		if err != nil {
			return false
		}
		for _, child := range n.Children() {
			if err = Accepts(n, child); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

// LayoutError reports a child that breaks the grid layout.
type LayoutError struct {
	Parent string
	Child  string
	Want   string
}

func (e *LayoutError) Error() string {
	return "node " + e.Child + " under " + e.Parent + " must be a " + e.Want
}
