package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/blocks/pkg/adapters/memory"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/aretw0/blocks/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke race conditions if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Save(ctx context.Context, page *domain.Page) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, page)
}

func (s slowStore) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, pageID)
}

func TestManager_UpdateSerializesReadModifyWrite(t *testing.T) {
	store := slowStore{memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	writers := 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(p *domain.Page) error {
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	page, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, writers, page.Version, "lost update")
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := slowStore{memory.NewStore()}
	manager := session.NewManager(store, session.WithRootKeys(func() string { return "root" }))
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := manager.LoadOrCreate(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, page)
		}()
	}
	wg.Wait()

	page, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ComponentGrid, page.Root.Component)
	assert.Equal(t, "root", page.Root.Key)
}

func TestManager_UpdateErrorWritesNothing(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := manager.Update(ctx, "p", func(*domain.Page) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = manager.Load(ctx, "p")
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
}

type countingLocker struct {
	mu     sync.Mutex
	locks  int
	unlock int
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlock++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLockPairs(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))
	ctx := context.Background()

	_, err := manager.LoadOrCreate(ctx, "p")
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "p"))

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, locker.locks, locker.unlock)
}
