package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
)

// CollectionServiceContractTest is a reusable test suite that verifies if an
// adapter complies with ports.CollectionService.
func CollectionServiceContractTest(t *testing.T, svc ports.CollectionService) {
	t.Helper()
	ctx := context.Background()

	// 1. Create with explicit name
	t.Run("Create_Named", func(t *testing.T) {
		c, err := svc.CreateOrUpdateCollection(ctx, map[string]any{"name": "orders", "title": "Orders"})
		if err != nil {
			t.Fatalf("unexpected error creating collection: %v", err)
		}
		if c.Name != "orders" || c.Title != "Orders" {
			t.Errorf("got %+v", c)
		}
	})

	// 2. Create without a name
	t.Run("Create_GeneratedName", func(t *testing.T) {
		c, err := svc.CreateOrUpdateCollection(ctx, map[string]any{"title": "Anonymous"})
		if err != nil {
			t.Fatalf("unexpected error creating collection: %v", err)
		}
		if len(c.Name) < 3 || c.Name[:2] != "t_" {
			t.Errorf("generated name %q should start with t_", c.Name)
		}
	})

	// 3. Update keeps fields
	t.Run("Update", func(t *testing.T) {
		if _, err := svc.CreateCollectionField(ctx, "orders", map[string]any{"interface": "input"}); err != nil {
			t.Fatalf("unexpected error creating field: %v", err)
		}
		c, err := svc.CreateOrUpdateCollection(ctx, map[string]any{"name": "orders", "title": "Orders v2"})
		if err != nil {
			t.Fatalf("unexpected error updating collection: %v", err)
		}
		if c.Title != "Orders v2" {
			t.Errorf("title = %q, want Orders v2", c.Title)
		}
		if len(c.Fields) != 1 {
			t.Errorf("fields = %d, want 1", len(c.Fields))
		}
	})

	// 4. Field on unknown collection
	t.Run("Field_NotFound", func(t *testing.T) {
		_, err := svc.CreateCollectionField(ctx, "missing", map[string]any{"interface": "input"})
		if !errors.Is(err, domain.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
	})

	// 5. Field defaults
	t.Run("Field_Defaults", func(t *testing.T) {
		f, err := svc.CreateCollectionField(ctx, "orders", map[string]any{"interface": "textarea", "title": "Notes"})
		if err != nil {
			t.Fatalf("unexpected error creating field: %v", err)
		}
		if len(f.Name) < 3 || f.Name[:2] != "f_" {
			t.Errorf("generated name %q should start with f_", f.Name)
		}
		if f.Key == "" {
			t.Error("field key should be generated")
		}
		if f.UISchema["title"] != "Notes" {
			t.Errorf("uiSchema title = %v, want Notes", f.UISchema["title"])
		}
	})

	// 6. List and Get
	t.Run("List", func(t *testing.T) {
		list, err := svc.ListCollections(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing collections: %v", err)
		}
		found := false
		for i, c := range list {
			if c.Name == "orders" {
				found = true
			}
			if i > 0 && list[i-1].Name > c.Name {
				t.Errorf("collections not ordered: %s before %s", list[i-1].Name, c.Name)
			}
		}
		if !found {
			t.Error("orders missing from list")
		}

		c, err := svc.GetCollection(ctx, "orders")
		if err != nil {
			t.Fatalf("unexpected error getting collection: %v", err)
		}
		if len(c.Fields) != 2 {
			t.Errorf("fields = %d, want 2", len(c.Fields))
		}

		if _, err := svc.GetCollection(ctx, "missing"); !errors.Is(err, domain.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
	})
}
