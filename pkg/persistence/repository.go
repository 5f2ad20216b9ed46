package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/blocks/internal/logging"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/aretw0/blocks/pkg/session"
	"github.com/aretw0/blocks/pkg/tree"
)

// ErrEmptyRecord is returned when a create record carries no subtree.
var ErrEmptyRecord = errors.New("record has no schema")

// Repository implements ports.SchemaPersister over a page store.
type Repository struct {
	pages  *session.Manager
	logger *slog.Logger
}

// Option configures the Repository.
type Option func(*Repository)

// WithLogger configures a logger for the Repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository creates a repository that serializes its replays through pages.
func NewRepository(pages *session.Manager, opts ...Option) *Repository {
	r := &Repository{
		pages:  pages,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.SchemaPersister = (*Repository)(nil)

// CreateSchema inserts rec.Node under the parent of rec.Path at rec.Position.
// A node whose key is already stored counts as success.
func (r *Repository) CreateSchema(ctx context.Context, pageID string, rec ports.Record) error {
	if rec.Node == nil {
		return ErrEmptyRecord
	}
	if rec.Path.IsRoot() {
		return fmt.Errorf("cannot create the page root: %w", tree.ErrRootHasNoSiblings)
	}
	return r.replay(ctx, pageID, func(tr *tree.Tree) (bool, error) {
		if tr.Has(rec.Node.Key) {
			r.logger.Debug("schema already stored", "page_id", pageID, "key", rec.Node.Key)
			return false, nil
		}
		_, err := tr.InsertAt(rec.Node.Clone(), rec.Path.Parent(), rec.Position)
		return err == nil, err
	})
}

// RemoveSchema deletes the node at rec.Path together with any wrapper it
// leaves empty. A path that is already gone counts as success.
func (r *Repository) RemoveSchema(ctx context.Context, pageID string, rec ports.Record) error {
	return r.replay(ctx, pageID, func(tr *tree.Tree) (bool, error) {
		if _, err := tr.Lookup(rec.Path); err != nil {
			if errors.Is(err, domain.ErrPathNotFound) {
				r.logger.Debug("schema already removed", "page_id", pageID, "path", rec.Path.String())
				return false, nil
			}
			return false, err
		}
		_, err := tr.DeepRemove(rec.Path)
		return err == nil, err
	})
}

// Page returns the stored page.
func (r *Repository) Page(ctx context.Context, pageID string) (*domain.Page, error) {
	return r.pages.LoadOrCreate(ctx, pageID)
}

// replay runs fn on the stored tree and saves when fn reports a change.
func (r *Repository) replay(ctx context.Context, pageID string, fn func(*tree.Tree) (bool, error)) error {
	return r.pages.WithLock(ctx, pageID, func(ctx context.Context) error {
		page, err := r.pages.LoadOrNew(ctx, pageID)
		if err != nil {
			return err
		}

		tr, err := tree.New(page.Root)
		if err != nil {
			return fmt.Errorf("stored page %s is inconsistent: %w", pageID, err)
		}
		changed, err := fn(tr)
		if err != nil || !changed {
			return err
		}

		page.Version++
		page.UpdatedAt = time.Now().UTC()
		return r.pages.Store().Save(ctx, page)
	})
}
