package persistence_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/blocks/pkg/adapters/memory"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/grid"
	"github.com/aretw0/blocks/pkg/persistence"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/aretw0/blocks/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*persistence.Repository, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	mgr := session.NewManager(store, session.WithRootKeys(func() string { return "root" }))
	return persistence.NewRepository(mgr), store
}

func wrapped(key, component string) *domain.Node {
	n := 0
	return grid.Wrap(domain.NewNode(key, domain.KindVoid, component), func() string {
		n++
		return fmt.Sprintf("%s-w%d", key, n)
	})
}

func TestRepository_CreateReplaysAtPosition(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	_, err := repo.Page(ctx, "p")
	require.NoError(t, err)

	a := wrapped("a", "Table")
	require.NoError(t, repo.CreateSchema(ctx, "p", ports.Record{Op: "appendChild", Path: domain.Path{a.Key}, Position: 0, Node: a}))
	b := wrapped("b", "Form")
	require.NoError(t, repo.CreateSchema(ctx, "p", ports.Record{Op: "insertBefore", Path: domain.Path{b.Key}, Position: 0, Node: b}))

	page, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{b.Key, a.Key}, page.Root.ChildKeys())
	assert.EqualValues(t, 2, page.Version)
	assert.NoError(t, grid.Validate(page.Root))
}

func TestRepository_CreateIsIdempotent(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	a := wrapped("a", "Table")
	rec := ports.Record{Op: "appendChild", Path: domain.Path{a.Key}, Node: a}
	require.NoError(t, repo.CreateSchema(ctx, "p", rec))
	require.NoError(t, repo.CreateSchema(ctx, "p", rec))

	page, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Root.Len())
	assert.EqualValues(t, 1, page.Version, "retry must not write again")
	assert.Nil(t, a.Parent(), "record subtree must not be adopted by the stored tree")
}

func TestRepository_CreateUnderMissingParentFails(t *testing.T) {
	repo, _ := newRepo(t)
	err := repo.CreateSchema(context.Background(), "p", ports.Record{
		Op:   "insertAfter",
		Path: domain.Path{"ghost", "x"},
		Node: domain.NewNode("x", domain.KindVoid, "Table"),
	})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)

	err = repo.CreateSchema(context.Background(), "p", ports.Record{Op: "appendChild", Path: domain.Path{"x"}})
	assert.ErrorIs(t, err, persistence.ErrEmptyRecord)
}

func TestRepository_RemoveCascadesAndIsIdempotent(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	a := wrapped("a", "Table")
	require.NoError(t, repo.CreateSchema(ctx, "p", ports.Record{Op: "appendChild", Path: domain.Path{a.Key}, Node: a}))
	col := a.Children()[0]
	content := col.Children()[0]

	rec := ports.Record{Op: "remove", Path: domain.Path{a.Key, col.Key, content.Key}}
	require.NoError(t, repo.RemoveSchema(ctx, "p", rec))
	require.NoError(t, repo.RemoveSchema(ctx, "p", rec))

	page, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 0, page.Root.Len(), "emptied wrappers are removed with the content")
	assert.EqualValues(t, 2, page.Version)
}
