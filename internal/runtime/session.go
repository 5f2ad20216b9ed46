package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/blocks/internal/logging"
	"github.com/aretw0/blocks/pkg/catalog"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/aretw0/blocks/pkg/registry"
	"github.com/aretw0/blocks/pkg/tree"
)

// PageLoader returns the durable copy of a page. It is the reload source.
type PageLoader interface {
	Page(ctx context.Context, pageID string) (*domain.Page, error)
}

// Session is one editing session on one page: the live tree, its displayed
// field registry and the collaborators every action talks to.
//
// Actions are serialized; each one mutates the tree, then awaits its own
// persistence call before returning.
type Session struct {
	mu sync.Mutex

	// pageID is fixed at construction; page is replaced on reload.
	pageID    string
	page      *domain.Page
	tree      *tree.Tree
	displayed *registry.Registry

	catalog     *catalog.Catalog
	persister   ports.SchemaPersister
	collections ports.CollectionService
	loader      PageLoader
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	newKey      domain.KeyGenerator
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCatalog sets the blueprint catalog.
func WithCatalog(c *catalog.Catalog) SessionOption {
	return func(s *Session) {
		s.catalog = c
	}
}

// WithPersister sets the persistence collaborator.
func WithPersister(p ports.SchemaPersister) SessionOption {
	return func(s *Session) {
		s.persister = p
	}
}

// WithCollections sets the collection metadata collaborator.
func WithCollections(c ports.CollectionService) SessionOption {
	return func(s *Session) {
		s.collections = c
	}
}

// WithLoader sets the source Reload reads from.
func WithLoader(l PageLoader) SessionOption {
	return func(s *Session) {
		s.loader = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) SessionOption {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeyGenerator sets the generator for node keys.
func WithKeyGenerator(gen domain.KeyGenerator) SessionOption {
	return func(s *Session) {
		if gen != nil {
			s.newKey = gen
		}
	}
}

// NewSession opens a session on a private copy of page.
func NewSession(page *domain.Page, opts ...SessionOption) (*Session, error) {
	s := &Session{
		displayed: registry.NewRegistry(),
		logger:    logging.NewNop(),
		newKey:    domain.NewKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.MustDefault()
	}
	if err := s.load(page); err != nil {
		return nil, err
	}
	s.pageID = page.ID
	s.logger = s.logger.With("page_id", page.ID)
	return s, nil
}

func (s *Session) load(page *domain.Page) error {
	if page == nil || page.Root == nil {
		return fmt.Errorf("%w: page has no tree", domain.ErrPageNotFound)
	}
	cp := page.Clone()
	tr, err := tree.New(cp.Root, tree.WithKeyGenerator(s.newKey))
	if err != nil {
		return fmt.Errorf("failed to open page %s: %w", page.ID, err)
	}
	if err := s.displayed.Rebuild(tr.Root()); err != nil {
		return fmt.Errorf("failed to rebuild displayed fields: %w", err)
	}
	s.page = cp
	s.tree = tr
	return nil
}

// PageID returns the ID of the page being edited.
func (s *Session) PageID() string {
	return s.pageID
}

// Snapshot returns a deep copy of the page for read-only consumers.
func (s *Session) Snapshot() *domain.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.Clone()
}

// Displayed returns the names of the fields currently displayed, sorted.
func (s *Session) Displayed() []string {
	return s.displayed.Names()
}

// IsDisplayed reports whether a toggle for name is checked.
func (s *Session) IsDisplayed(name string) bool {
	return s.displayed.Has(name)
}

// Reload discards the local tree and registry and reopens the page from the
// loader. It is the recovery path after a persistence failure.
func (s *Session) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("session has no page loader")
	}
	page, err := s.loader.Page(ctx, s.pageID)
	if err != nil {
		return fmt.Errorf("failed to reload page %s: %w", s.pageID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(page); err != nil {
		return err
	}
	s.logger.Info("page reloaded", "version", page.Version)
	return nil
}

// persist hands rec to the persister and reports the outcome. The tree is
// already changed and stays changed whatever happens here.
func (s *Session) persist(ctx context.Context, rec ports.Record) error {
	if s.persister == nil {
		return nil
	}
	op := "create"
	call := s.persister.CreateSchema
	if rec.Op == string(tree.OpRemove) {
		op = "remove"
		call = s.persister.RemoveSchema
	}

	start := time.Now()
	err := call(ctx, s.pageID, rec)
	event := &domain.PersistEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventPersisted,
			PageID:    s.pageID,
		},
		Op:       op,
		Path:     rec.Path.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		event.Type = domain.EventPersistFailed
		event.Err = err.Error()
	}
	if s.hooks.OnPersist != nil {
		s.hooks.OnPersist(ctx, event)
	}
	if err != nil {
		return &domain.PersistenceError{Op: op, Path: rec.Path.Clone(), Err: err}
	}
	return nil
}

func (s *Session) emitMutation(ctx context.Context, typ domain.EventType, op tree.Op, path domain.Path, keys []string, err error) {
	if s.hooks.OnMutation == nil {
		return
	}
	event := &domain.MutationEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			PageID:    s.pageID,
		},
		Op:   string(op),
		Path: path.String(),
		Keys: keys,
	}
	if err != nil {
		event.Kind = ErrorKind(err)
		event.Err = err.Error()
	}
	s.hooks.OnMutation(ctx, event)
}

// touch records a local change. Version only moves on durable writes.
func (s *Session) touch() {
	s.page.UpdatedAt = time.Now().UTC()
}
