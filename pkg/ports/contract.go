package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractPage builds a page with one table block:
// root → row → col → table(→ bar, → op).
func contractPage(id string) *domain.Page {
	page := domain.NewPage(id, "root")
	page.Title = "Contract"
	row := domain.NewNode("row", domain.KindVoid, domain.ComponentRow)
	col := domain.NewNode("col", domain.KindVoid, domain.ComponentCol)
	table := domain.NewNode("table", domain.KindArray, "Table")
	table.SetProp(domain.PropCollectionName, "orders")
	page.Root.AttachChild(row, 0)
	row.AttachChild(col, 0)
	col.AttachChild(table, 0)
	table.AttachChild(domain.NewNode("op", domain.KindVoid, "Table.Operation"), 0)
	table.AttachChild(domain.NewNode("bar", domain.KindVoid, "Table.ActionBar"), 0)
	return page
}

// RunPageStoreContract runs a suite of tests to verify that a PageStore implementation
// adheres to the defined interface contract.
func RunPageStoreContract(t *testing.T, store PageStore) {
	ctx := context.Background()
	pageID := "contract-test-page-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		page := contractPage(pageID)
		page.Version = 3

		err := store.Save(ctx, page)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, pageID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, pageID, loaded.ID)
		assert.Equal(t, "Contract", loaded.Title)
		assert.Equal(t, int64(3), loaded.Version)
		require.NotNil(t, loaded.Root)
		assert.Equal(t, domain.ComponentGrid, loaded.Root.Component)

		table := loaded.Root.Children()[0].Children()[0].Children()[0]
		assert.Equal(t, "table", table.Key)
		assert.Equal(t, []string{"bar", "op"}, table.ChildKeys(), "child order must survive a round trip")
		assert.Equal(t, "orders", table.Prop(domain.PropCollectionName))
		assert.Same(t, table, table.Children()[0].Parent(), "parent links are rebuilt")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		page := contractPage(pageID)
		page.Root.DetachChild("row")
		page.Version = 4
		require.NoError(t, store.Save(ctx, page))

		loaded, err := store.Load(ctx, pageID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), loaded.Version)
		assert.Equal(t, 0, loaded.Root.Len())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, contractPage(pageID))
		require.NoError(t, err)

		err = store.Delete(ctx, pageID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound, "Load after Delete should return ErrPageNotFound")

		assert.NoError(t, store.Delete(ctx, pageID), "Delete of a missing page should succeed")
	})

	t.Run("List", func(t *testing.T) {
		id1 := pageID + "-1"
		id2 := pageID + "-2"
		_ = store.Save(ctx, contractPage(id1))
		_ = store.Save(ctx, contractPage(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		pages, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, pages, id1)
		assert.Contains(t, pages, id2)
	})
}
