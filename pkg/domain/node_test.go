package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_AttachChildKeepsOrder(t *testing.T) {
	root := NewNode("root", KindVoid, ComponentGrid)
	root.AttachChild(NewNode("a", KindVoid, ""), 0)
	root.AttachChild(NewNode("c", KindVoid, ""), 1)
	root.AttachChild(NewNode("b", KindVoid, ""), 1)
	root.AttachChild(NewNode("first", KindVoid, ""), 0)
	root.AttachChild(NewNode("last", KindVoid, ""), 99)

	assert.Equal(t, []string{"first", "a", "b", "c", "last"}, root.ChildKeys())
	assert.Equal(t, 2, root.IndexOf("b"))
	assert.Equal(t, -1, root.IndexOf("missing"))

	b, ok := root.Child("b")
	require.True(t, ok)
	assert.Same(t, root, b.Parent())
}

func TestNode_DetachChildClearsParent(t *testing.T) {
	root := NewNode("root", KindVoid, ComponentGrid)
	child := NewNode("a", KindVoid, "")
	root.AttachChild(child, 0)

	got, ok := root.DetachChild("a")
	require.True(t, ok)
	assert.Same(t, child, got)
	assert.Nil(t, child.Parent())
	assert.Equal(t, 0, root.Len())

	_, ok = root.DetachChild("a")
	assert.False(t, ok)
}

func TestNode_CloneIsDeepAndDetached(t *testing.T) {
	root := NewNode("root", KindVoid, ComponentGrid)
	row := NewNode("row", KindVoid, ComponentRow)
	row.SetProp("config", map[string]any{"xField": "type"})
	root.AttachChild(row, 0)
	row.AttachChild(NewNode("col", KindVoid, ComponentCol), 0)

	cp := row.Clone()
	assert.Nil(t, cp.Parent())
	assert.Equal(t, []string{"col"}, cp.ChildKeys())

	col, _ := cp.Child("col")
	assert.Same(t, cp, col.Parent())

	cp.Prop("config").(map[string]any)["xField"] = "changed"
	assert.Equal(t, "type", row.Prop("config").(map[string]any)["xField"])
}

func TestNode_WalkVisitsInOrder(t *testing.T) {
	root := NewNode("root", KindVoid, ComponentGrid)
	a := NewNode("a", KindVoid, "")
	root.AttachChild(a, 0)
	a.AttachChild(NewNode("a1", KindVoid, ""), 0)
	root.AttachChild(NewNode("b", KindVoid, ""), 1)

	var seen []string
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.Key)
		return true
	})
	assert.Equal(t, []string{"root", "a", "a1", "b"}, seen)

	seen = nil
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.Key)
		return n.Key != "a"
	})
	assert.Equal(t, []string{"root", "a", "b"}, seen)
}
