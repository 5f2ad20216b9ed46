package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/blocks/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one log line per event.
// Rejected mutations log at warn, failed persistence at error.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			if e.Type == domain.EventRejected {
				logger.WarnContext(ctx, "mutation rejected",
					"page_id", e.PageID,
					"op", e.Op,
					"path", e.Path,
					"kind", e.Kind,
					"err", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "mutation applied",
				"page_id", e.PageID,
				"op", e.Op,
				"path", e.Path,
				"keys", e.Keys,
			)
		},
		OnPersist: func(ctx context.Context, e *domain.PersistEvent) {
			if e.Type == domain.EventPersistFailed {
				logger.ErrorContext(ctx, "persistence failed",
					"page_id", e.PageID,
					"op", e.Op,
					"path", e.Path,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "persisted",
				"page_id", e.PageID,
				"op", e.Op,
				"path", e.Path,
				"duration", e.Duration,
			)
		},
	}
}
