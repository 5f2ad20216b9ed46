package runtime

import (
	"errors"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/grid"
	"github.com/aretw0/blocks/pkg/schema"
	"github.com/aretw0/blocks/pkg/tree"
)

var (
	// ErrNotBindable is returned when a collection is bound to a blueprint
	// that cannot display one.
	ErrNotBindable = errors.New("blueprint cannot be bound to a collection")

	// ErrNoCollections is returned when an action needs the collection
	// service and the session has none.
	ErrNoCollections = errors.New("no collection service configured")

	// ErrNotInMenu is returned when a selection is not offered by the menu
	// it was picked from.
	ErrNotInMenu = errors.New("blueprint is not in this menu")
)

// ErrorKind classifies err for metrics labels and event payloads.
func ErrorKind(err error) string {
	var layout *grid.LayoutError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrPathNotFound):
		return "path_not_found"
	case errors.Is(err, domain.ErrDetachedNode):
		return "detached"
	case errors.Is(err, domain.ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, tree.ErrRemoveRoot), errors.Is(err, tree.ErrRootHasNoSiblings), errors.As(err, &layout):
		return "invalid_target"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	case errors.Is(err, domain.ErrUnknownBlueprint),
		errors.Is(err, domain.ErrDisabledBlueprint),
		errors.Is(err, ErrNotInMenu),
		errors.Is(err, ErrNotBindable):
		return "blueprint"
	case errors.Is(err, domain.ErrCollectionNotFound), errors.Is(err, ErrNoCollections):
		return "collection"
	case schema.IsValidation(err):
		return "validation"
	default:
		return "other"
	}
}
