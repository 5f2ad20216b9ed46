package tree

import (
	"fmt"
	"testing"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterKeys(prefix string) domain.KeyGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// fixture builds:
//
//	root(Grid)
//	  r1(Grid.Row)
//	    c1(Grid.Col)
//	      a
//	      b
//	  r2(Grid.Row)
//	    c2(Grid.Col)
//	      d
func fixture(t *testing.T) *Tree {
	t.Helper()
	root := domain.NewNode("root", domain.KindVoid, domain.ComponentGrid)
	r1 := domain.NewNode("r1", domain.KindVoid, domain.ComponentRow)
	c1 := domain.NewNode("c1", domain.KindVoid, domain.ComponentCol)
	r2 := domain.NewNode("r2", domain.KindVoid, domain.ComponentRow)
	c2 := domain.NewNode("c2", domain.KindVoid, domain.ComponentCol)
	root.AttachChild(r1, 0)
	root.AttachChild(r2, 1)
	r1.AttachChild(c1, 0)
	r2.AttachChild(c2, 0)
	c1.AttachChild(domain.NewNode("a", domain.KindVoid, "Table"), 0)
	c1.AttachChild(domain.NewNode("b", domain.KindVoid, "Form"), 1)
	c2.AttachChild(domain.NewNode("d", domain.KindVoid, "Markdown.Void"), 0)

	tr, err := New(root, WithKeyGenerator(counterKeys("k")))
	require.NoError(t, err)
	return tr
}

func assertUniqueKeys(t *testing.T, tr *Tree) {
	t.Helper()
	seen := map[string]bool{}
	count := 0
	tr.Root().Walk(func(n *domain.Node) bool {
		assert.False(t, seen[n.Key], "duplicate key %q", n.Key)
		seen[n.Key] = true
		count++
		return true
	})
	assert.Equal(t, count, tr.Len(), "index out of sync with tree")
}

func assertRoundTrip(t *testing.T, tr *Tree) {
	t.Helper()
	tr.Root().Walk(func(n *domain.Node) bool {
		p, err := tr.Resolve(n)
		require.NoError(t, err)
		got, err := tr.Lookup(p)
		require.NoError(t, err)
		assert.Same(t, n, got, "round trip for %q", n.Key)
		return true
	})
}

func TestNew_RejectsDuplicateKeys(t *testing.T) {
	root := domain.NewNode("root", domain.KindVoid, domain.ComponentGrid)
	row := domain.NewNode("x", domain.KindVoid, domain.ComponentRow)
	root.AttachChild(row, 0)
	row.AttachChild(domain.NewNode("x", domain.KindVoid, domain.ComponentCol), 0)

	_, err := New(root)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestResolve_RoundTrip(t *testing.T) {
	tr := fixture(t)
	assertRoundTrip(t, tr)

	a, ok := tr.Node("a")
	require.True(t, ok)
	p, err := tr.Resolve(a)
	require.NoError(t, err)
	assert.Equal(t, domain.Path{"r1", "c1", "a"}, p)

	p, err = tr.Resolve(tr.Root())
	require.NoError(t, err)
	assert.True(t, p.IsRoot())
}

func TestResolve_DetachedNode(t *testing.T) {
	tr := fixture(t)
	a, _ := tr.Node("a")
	_, err := tr.DeepRemove(domain.Path{"r1", "c1", "a"})
	require.NoError(t, err)

	_, err = tr.Resolve(a)
	assert.ErrorIs(t, err, domain.ErrDetachedNode)

	_, err = tr.Resolve(domain.NewNode("loose", domain.KindVoid, ""))
	assert.ErrorIs(t, err, domain.ErrDetachedNode)
}

func TestLookup_PathNotFound(t *testing.T) {
	tr := fixture(t)
	_, err := tr.Lookup(domain.Path{"r1", "nope"})
	var pnf *domain.PathNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, domain.Path{"r1", "nope"}, pnf.Path)
}

func TestInsertBeforeAndAfter_PreserveSiblingOrder(t *testing.T) {
	tr := fixture(t)

	p, err := tr.InsertBefore(domain.NewNode("", domain.KindVoid, "Chart.Bar"), domain.Path{"r1", "c1", "b"})
	require.NoError(t, err)
	assert.Equal(t, domain.Path{"r1", "c1", "k1"}, p)

	p, err = tr.InsertAfter(domain.NewNode("", domain.KindVoid, "Chart.Column"), domain.Path{"r1", "c1", "a"})
	require.NoError(t, err)
	assert.Equal(t, domain.Path{"r1", "c1", "k2"}, p)

	c1, err := tr.Lookup(domain.Path{"r1", "c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "k2", "k1", "b"}, c1.ChildKeys())

	_, err = tr.InsertAfter(domain.NewNode("", domain.KindVoid, "X"), domain.Path{"r1", "c1", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "k2", "k1", "b", "k3"}, c1.ChildKeys())

	assertUniqueKeys(t, tr)
	assertRoundTrip(t, tr)
}

func TestAppendChild_AssignsFreshKeysToSubtree(t *testing.T) {
	tr := fixture(t)
	bp := domain.NewNode("a", domain.KindVoid, "Form")
	bp.AttachChild(domain.NewNode("inner", domain.KindString, "Input"), 0)

	p, err := tr.AppendChild(bp, domain.Path{"r2", "c2"})
	require.NoError(t, err)
	assert.Equal(t, domain.Path{"r2", "c2", "k1"}, p)
	assert.Equal(t, "k1", bp.Key, "blueprint key is always replaced")
	assert.True(t, tr.Has("inner"))

	c2, _ := tr.Lookup(domain.Path{"r2", "c2"})
	assert.Equal(t, []string{"d", "k1"}, c2.ChildKeys())
	assertUniqueKeys(t, tr)
}

func TestInsert_DuplicateKeyLeavesTreeUnchanged(t *testing.T) {
	tr := fixture(t)
	before := tr.Len()

	bp := domain.NewNode("", domain.KindVoid, "Form")
	bp.AttachChild(domain.NewNode("d", domain.KindString, "Input"), 0)

	_, err := tr.AppendChild(bp, domain.Path{"r1", "c1"})
	var dup *domain.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "d", dup.Key)

	c1, _ := tr.Lookup(domain.Path{"r1", "c1"})
	assert.Equal(t, []string{"a", "b"}, c1.ChildKeys())
	assert.Equal(t, before, tr.Len())
	assert.Nil(t, bp.Parent())
}

func TestInsert_PathNotFoundLeavesTreeUnchanged(t *testing.T) {
	tr := fixture(t)
	before := tr.Len()

	_, err := tr.InsertAfter(domain.NewNode("", domain.KindVoid, "Form"), domain.Path{"r9", "c1"})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)
	assert.Equal(t, before, tr.Len())
}

func TestInsert_RejectsAttachedBlueprintAndRootSiblings(t *testing.T) {
	tr := fixture(t)
	a, _ := tr.Node("a")

	_, err := tr.AppendChild(a, domain.Path{"r2", "c2"})
	assert.ErrorIs(t, err, ErrAttached)

	_, err = tr.InsertBefore(domain.NewNode("", domain.KindVoid, "X"), nil)
	assert.ErrorIs(t, err, ErrRootHasNoSiblings)
}

func TestApply_UnknownOp(t *testing.T) {
	tr := fixture(t)
	_, err := tr.Apply(OpRemove, domain.NewNode("", domain.KindVoid, "X"), domain.Path{"r1"})
	var unknown *UnknownOpError
	assert.ErrorAs(t, err, &unknown)
}

func TestDeepRemove_CascadesThroughEmptyWrappers(t *testing.T) {
	tr := fixture(t)

	removed, err := tr.DeepRemove(domain.Path{"r2", "c2", "d"})
	require.NoError(t, err)
	require.Len(t, removed, 3)
	assert.Equal(t, "d", removed[0].Key)
	assert.Equal(t, "c2", removed[1].Key)
	assert.Equal(t, "r2", removed[2].Key)
	assert.Equal(t, domain.Path{"r2"}, RemovedPath(domain.Path{"r2", "c2", "d"}, removed))

	assert.Equal(t, []string{"r1"}, tr.Root().ChildKeys())
	assert.False(t, tr.Has("d"))
	assert.False(t, tr.Has("c2"))
	assertUniqueKeys(t, tr)
}

func TestDeepRemove_StopsAtNonEmptyColumn(t *testing.T) {
	tr := fixture(t)

	removed, err := tr.DeepRemove(domain.Path{"r1", "c1", "a"})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, domain.Path{"r1", "c1", "a"}, RemovedPath(domain.Path{"r1", "c1", "a"}, removed))

	c1, _ := tr.Lookup(domain.Path{"r1", "c1"})
	assert.Equal(t, []string{"b"}, c1.ChildKeys())
}

func TestDeepRemove_StopsAtGridAndRoot(t *testing.T) {
	root := domain.NewNode("root", domain.KindVoid, domain.ComponentGrid)
	row := domain.NewNode("r", domain.KindVoid, domain.ComponentRow)
	col := domain.NewNode("c", domain.KindVoid, domain.ComponentCol)
	inner := domain.NewNode("g", domain.KindVoid, domain.ComponentGrid)
	root.AttachChild(row, 0)
	row.AttachChild(col, 0)
	col.AttachChild(inner, 0)
	innerRow := domain.NewNode("ir", domain.KindVoid, domain.ComponentRow)
	innerCol := domain.NewNode("ic", domain.KindVoid, domain.ComponentCol)
	inner.AttachChild(innerRow, 0)
	innerRow.AttachChild(innerCol, 0)
	innerCol.AttachChild(domain.NewNode("x", domain.KindString, "Input"), 0)

	tr, err := New(root)
	require.NoError(t, err)

	removed, err := tr.DeepRemove(domain.Path{"r", "c", "g", "ir", "ic", "x"})
	require.NoError(t, err)
	assert.Len(t, removed, 3, "cascade stops at the nested grid")
	assert.True(t, tr.Has("g"))
	assert.Equal(t, 0, inner.Len())

	_, err = tr.DeepRemove(nil)
	assert.ErrorIs(t, err, ErrRemoveRoot)
}

func TestInsertAfterThenDeepRemove_RestoresSiblings(t *testing.T) {
	tr := fixture(t)
	c1, _ := tr.Lookup(domain.Path{"r1", "c1"})
	before := c1.ChildKeys()
	size := tr.Len()

	p, err := tr.InsertAfter(domain.NewNode("", domain.KindVoid, "Form"), domain.Path{"r1", "c1", "a"})
	require.NoError(t, err)
	_, err = tr.DeepRemove(p)
	require.NoError(t, err)

	assert.Equal(t, before, c1.ChildKeys())
	assert.Equal(t, size, tr.Len())
}

func TestInsertAt_KeepsKeys(t *testing.T) {
	tr := fixture(t)
	n := domain.NewNode("kept", domain.KindVoid, "Form")

	p, err := tr.InsertAt(n, domain.Path{"r1", "c1"}, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Path{"r1", "c1", "kept"}, p)

	c1, _ := tr.Lookup(domain.Path{"r1", "c1"})
	assert.Equal(t, []string{"a", "kept", "b"}, c1.ChildKeys())

	_, err = tr.InsertAt(domain.NewNode("kept", domain.KindVoid, "Form"), domain.Path{"r2"}, 0)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}
