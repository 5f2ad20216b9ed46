package blocks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/blocks/internal/logging"
	"github.com/aretw0/blocks/internal/runtime"
	"github.com/aretw0/blocks/pkg/adapters/memory"
	"github.com/aretw0/blocks/pkg/catalog"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/persistence"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/aretw0/blocks/pkg/session"
	"github.com/aretw0/blocks/pkg/tree"
)

// Version is the release of the designer, set at build time.
var Version = "dev"

// Session is an editing session on one page.
type Session = runtime.Session

// Selection picks a blueprint from the catalog.
type Selection = runtime.Selection

// Change describes what an action did to a page tree.
type Change = runtime.Change

// Insertion actions accepted by the session.
const (
	InsertBefore = tree.OpInsertBefore
	InsertAfter  = tree.OpInsertAfter
	AppendChild  = tree.OpAppendChild
)

// Engine is the high-level entry point of the designer. It owns the page
// store, the collaborators and one live session per open page.
type Engine struct {
	store       ports.PageStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	persister   ports.SchemaPersister
	collections ports.CollectionService
	catalog     *catalog.Catalog
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	newKey      domain.KeyGenerator

	pages *session.Manager
	repo  *persistence.Repository

	mu       sync.Mutex
	sessions map[string]*runtime.Session
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the page store. The default keeps pages in memory.
func WithStore(store ports.PageStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed page locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL bounds how long the distributed page lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithPersister replaces the store-backed persistence collaborator.
func WithPersister(p ports.SchemaPersister) Option {
	return func(e *Engine) {
		e.persister = p
	}
}

// WithCollections sets the collection metadata collaborator.
func WithCollections(c ports.CollectionService) Option {
	return func(e *Engine) {
		e.collections = c
	}
}

// WithCatalog sets the blueprint catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithKeyGenerator sets the generator for node keys and new page roots.
func WithKeyGenerator(gen domain.KeyGenerator) Option {
	return func(e *Engine) {
		e.newKey = gen
	}
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{sessions: make(map[string]*runtime.Session)}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.newKey == nil {
		eng.newKey = domain.NewKey
	}
	if eng.catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		eng.catalog = c
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.collections == nil {
		eng.collections = memory.NewCollections(memory.WithCatalog(eng.catalog))
	}

	managerOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithRootKeys(eng.newKey),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		managerOpts = append(managerOpts, session.WithLockTTL(eng.lockTTL))
	}
	eng.pages = session.NewManager(eng.store, managerOpts...)
	eng.repo = persistence.NewRepository(eng.pages, persistence.WithLogger(eng.logger))
	if eng.persister == nil {
		eng.persister = eng.repo
	}
	return eng, nil
}

// Open returns the live session for pageID, creating the page if needed.
func (e *Engine) Open(ctx context.Context, pageID string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[pageID]; ok {
		return s, nil
	}
	page, err := e.repo.Page(ctx, pageID)
	if err != nil {
		return nil, err
	}
	s, err := runtime.NewSession(page,
		runtime.WithCatalog(e.catalog),
		runtime.WithPersister(e.persister),
		runtime.WithCollections(e.collections),
		runtime.WithLoader(e.repo),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithKeyGenerator(e.newKey),
	)
	if err != nil {
		return nil, err
	}
	e.sessions[pageID] = s
	e.logger.Debug("session opened", "page_id", pageID, "version", page.Version)
	return s, nil
}

// Session returns the live session for pageID, if one is open.
func (e *Engine) Session(pageID string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[pageID]
	return s, ok
}

// Close ends the session on pageID. The page stays stored.
func (e *Engine) Close(pageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, pageID)
}

// Page returns the stored copy of a page without opening a session.
func (e *Engine) Page(ctx context.Context, pageID string) (*domain.Page, error) {
	return e.pages.Load(ctx, pageID)
}

// Pages lists stored page IDs.
func (e *Engine) Pages(ctx context.Context) ([]string, error) {
	return e.pages.List(ctx)
}

// Delete removes a page and ends its session.
func (e *Engine) Delete(ctx context.Context, pageID string) error {
	e.Close(pageID)
	return e.pages.Delete(ctx, pageID)
}

// Catalog returns the blueprint catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Collections returns the collection metadata collaborator.
func (e *Engine) Collections() ports.CollectionService {
	return e.collections
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}
