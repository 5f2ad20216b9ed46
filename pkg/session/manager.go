package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/blocks/internal/logging"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed page lock may be held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates page access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.PageStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	rootKey domain.KeyGenerator
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithRootKeys sets the generator used for the root key of new pages.
func WithRootKeys(gen domain.KeyGenerator) Option {
	return func(m *Manager) {
		m.rootKey = gen
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new page Manager with the given store.
func NewManager(store ports.PageStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		rootKey: domain.NewKey,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and then call release(pageID) after unlocking.
func (m *Manager) acquire(pageID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageID]
	if !exists {
		entry = &lockEntry{}
		m.locks[pageID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(pageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pageID)
	}
}

// Load retrieves an existing page from the store.
func (m *Manager) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	var page *domain.Page
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		var err error
		page, err = m.store.Load(ctx, pageID)
		return err
	})
	return page, err
}

// LoadOrCreate loads a page, creating and storing an empty one if missing.
func (m *Manager) LoadOrCreate(ctx context.Context, pageID string) (*domain.Page, error) {
	var page *domain.Page
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		var created bool
		var err error
		page, created, err = m.loadOrNew(ctx, pageID)
		if err != nil || !created {
			return err
		}
		if err := m.store.Save(ctx, page); err != nil {
			return fmt.Errorf("failed to initialize page: %w", err)
		}
		return nil
	})
	return page, err
}

// Update loads the page, applies fn and saves the result, all under the
// page lock. A missing page starts out empty. Version is bumped on save;
// when fn fails nothing is written.
func (m *Manager) Update(ctx context.Context, pageID string, fn func(*domain.Page) error) (*domain.Page, error) {
	var page *domain.Page
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		var err error
		page, _, err = m.loadOrNew(ctx, pageID)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		page.Version++
		page.UpdatedAt = time.Now().UTC()
		return m.store.Save(ctx, page)
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// LoadOrNew loads a page or returns a new empty one without storing it.
// The caller must hold the page lock.
func (m *Manager) LoadOrNew(ctx context.Context, pageID string) (*domain.Page, error) {
	page, _, err := m.loadOrNew(ctx, pageID)
	return page, err
}

func (m *Manager) loadOrNew(ctx context.Context, pageID string) (*domain.Page, bool, error) {
	page, err := m.store.Load(ctx, pageID)
	if err == nil {
		return page, false, nil
	}
	if !errors.Is(err, domain.ErrPageNotFound) {
		return nil, false, fmt.Errorf("failed to check page existence: %w", err)
	}
	return domain.NewPage(pageID, m.rootKey()), true, nil
}

// Save persists the page.
func (m *Manager) Save(ctx context.Context, page *domain.Page) error {
	return m.WithLock(ctx, page.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, page)
	})
}

// Delete removes the page from the store.
func (m *Manager) Delete(ctx context.Context, pageID string) error {
	return m.WithLock(ctx, pageID, func(ctx context.Context) error {
		return m.store.Delete(ctx, pageID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying page store.
func (m *Manager) Store() ports.PageStore {
	return m.store
}

// WithLock executes a function while holding the lock for the page.
func (m *Manager) WithLock(ctx context.Context, pageID string, fn func(context.Context) error) error {
	entry := m.acquire(pageID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pageID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, pageID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"page_id", pageID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
