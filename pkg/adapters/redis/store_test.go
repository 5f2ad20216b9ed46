package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/blocks/pkg/adapters/redis"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunPageStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	page := domain.NewPage("page-ttl", "root")

	err := store.Save(ctx, page)
	assert.NoError(t, err)

	pages, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, pages, page.ID)

	// Key expiry inside miniredis.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, page.ID)
	assert.ErrorIs(t, err, domain.ErrPageNotFound)

	// The index is pruned against the wall clock, so wait past the TTL.
	time.Sleep(1200 * time.Millisecond)

	pages, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pages)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, domain.NewPage("my-page", "root"))
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:my-page"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, "my-page")
}
