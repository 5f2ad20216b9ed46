package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/blocks/pkg/adapters/memory"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretPage(id, secret string) *domain.Page {
	page := domain.NewPage(id, "root")
	page.Title = "Orders"
	md := domain.NewNode("md", domain.KindVoid, "Markdown.Void")
	md.SetProp("content", secret)
	page.Root.AttachChild(md, 0)
	return page
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	key := generateKey(t)
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(underlyingStore)

	ctx := context.Background()
	if err := secureStore.Save(ctx, secretPage("p1", "my-secret-sauce")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlyingStore.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Root.Len() != 0 {
		t.Fatal("expected the stored tree to be hidden")
	}
	if _, ok := stored.Root.Prop("__encrypted__").(string); !ok {
		t.Fatal("expected __encrypted__ prop on the envelope root")
	}
	if stored.Title != "Orders" {
		t.Errorf("title should stay readable, got %q", stored.Title)
	}

	loaded, err := secureStore.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	md, ok := loaded.Root.Child("md")
	if !ok {
		t.Fatal("decrypted tree lost its children")
	}
	if md.Prop("content") != "my-secret-sauce" {
		t.Errorf("expected 'my-secret-sauce', got %v", md.Prop("content"))
	}
	if md.Parent() != loaded.Root {
		t.Error("parent links not rebuilt after decryption")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	storeOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	if err := storeOld.Save(ctx, secretPage("p1", "old")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	storeNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := storeNew.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if err := storeNew.Save(ctx, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := storeOld.Load(ctx, "p1"); err == nil {
		t.Error("expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainPages(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, secretPage("plain", "x")); err != nil {
		t.Fatal(err)
	}
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err == nil {
		t.Error("expected plain page to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
