package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/blocks/pkg/catalog"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/grid"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/aretw0/blocks/pkg/registry"
	"github.com/aretw0/blocks/pkg/tree"
)

// collectionPrefix marks a menu key that binds an existing collection:
// collection.<name>.<Blueprint>.
const collectionPrefix = "collection."

// Change describes what an action did to the tree.
type Change struct {
	Op tree.Op `json:"op"`
	// Path addresses the inserted node, or the outermost removed node.
	Path domain.Path `json:"path"`
	// Content addresses the blueprint itself when it was wrapped.
	Content domain.Path `json:"content,omitempty"`
	// Keys lists every key added or removed.
	Keys []string `json:"keys"`
	// Checked is the toggle state after a field toggle.
	Checked bool `json:"checked,omitempty"`
}

// Selection picks a blueprint from the catalog.
type Selection struct {
	// Menu restricts Key to one catalog menu when set.
	Menu string `json:"menu,omitempty"`
	// Key is a blueprint key, or collection.<name>.<Blueprint>.
	Key string `json:"key"`
	// Collection binds the block to an existing collection.
	Collection string `json:"collection,omitempty"`
	// NewCollection creates a collection titled Title and binds to it.
	NewCollection bool   `json:"new_collection,omitempty"`
	Title         string `json:"title,omitempty"`
}

// ParseSelection splits a collection.<name>.<Blueprint> key. Other keys are
// returned unchanged. Collection names carry no dots; blueprint keys may.
func ParseSelection(key string) Selection {
	rest, ok := strings.CutPrefix(key, collectionPrefix)
	if !ok {
		return Selection{Key: key}
	}
	name, bp, ok := strings.Cut(rest, ".")
	if !ok || name == "" || bp == "" {
		return Selection{Key: key}
	}
	return Selection{Key: bp, Collection: name}
}

// AddBlock instantiates the selected blueprint and inserts it relative to
// target. Grid targets and grid blocks get the blueprint wrapped in a new
// row and column.
func (s *Session) AddBlock(ctx context.Context, sel Selection, target domain.Path, action tree.Op) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.HasPrefix(sel.Key, collectionPrefix) {
		parsed := ParseSelection(sel.Key)
		sel.Key, sel.Collection = parsed.Key, parsed.Collection
	}

	if _, err := s.tree.Lookup(target); err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, err
	}
	bp, err := s.blueprint(sel)
	if err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, err
	}
	if sel.NewCollection {
		if s.collections == nil {
			s.emitMutation(ctx, domain.EventRejected, action, target, nil, ErrNoCollections)
			return Change{}, ErrNoCollections
		}
		def := map[string]any{}
		if sel.Title != "" {
			def["title"] = sel.Title
		}
		c, err := s.collections.CreateOrUpdateCollection(ctx, def)
		if err != nil {
			s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
			return Change{}, err
		}
		s.logger.Info("collection created", "collection", c.Name)
		sel.Collection = c.Name
	}
	if sel.Collection != "" {
		catalog.Bind(bp, sel.Collection)
	}

	ch, _, err := s.insert(ctx, bp, target, action)
	return ch, err
}

// AddPaneBlock inserts a block from the pane menu.
func (s *Session) AddPaneBlock(ctx context.Context, key string, target domain.Path, action tree.Op) (Change, error) {
	return s.AddBlock(ctx, Selection{Menu: catalog.MenuPane, Key: key}, target, action)
}

// AddNote inserts a markdown note form item.
func (s *Session) AddNote(ctx context.Context, target domain.Path, action tree.Op) (Change, error) {
	return s.AddBlock(ctx, Selection{Menu: catalog.MenuForm, Key: "FormItem.Note"}, target, action)
}

// ToggleField shows the named field next to target when it is hidden, and
// removes the node displaying it when it is shown.
func (s *Session) ToggleField(ctx context.Context, name string, target domain.Path, action tree.Op) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.displayed.Get(name); ok {
		path, err := s.tree.Resolve(n)
		if err != nil {
			// The registry outlived its node; forget it and report.
			s.displayed.Remove(name)
			s.emitMutation(ctx, domain.EventRejected, tree.OpRemove, nil, nil, err)
			return Change{}, err
		}
		return s.remove(ctx, path)
	}

	bp, err := s.catalog.FieldItem(name, s.tree.NewKey)
	if err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, err
	}
	ch, content, err := s.insert(ctx, bp, target, action)
	if content != nil {
		s.displayed.Set(name, content)
		ch.Checked = true
	}
	return ch, err
}

// AddCollectionField creates a field on collection and inserts a copy of its
// uiSchema relative to target.
func (s *Session) AddCollectionField(ctx context.Context, collection string, def map[string]any, target domain.Path, action tree.Op) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections == nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, ErrNoCollections)
		return Change{}, ErrNoCollections
	}
	if _, err := s.tree.Lookup(target); err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, err
	}
	f, err := s.collections.CreateCollectionField(ctx, collection, def)
	if err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, err
	}
	bp, err := fieldBlueprint(f)
	if err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, err
	}

	ch, content, err := s.insert(ctx, bp, target, action)
	if content != nil {
		s.displayed.Set(f.Name, content)
		ch.Checked = true
	}
	return ch, err
}

// Remove deletes the node at path and any wrapper it leaves empty.
func (s *Session) Remove(ctx context.Context, path domain.Path) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, path)
}

func (s *Session) blueprint(sel Selection) (*domain.Node, error) {
	if sel.Menu != "" && !s.catalog.InMenu(sel.Menu, sel.Key) {
		return nil, fmt.Errorf("%w: %s not in %s", ErrNotInMenu, sel.Key, sel.Menu)
	}
	if sel.Collection != "" || sel.NewCollection {
		if e, ok := s.catalog.Entry(sel.Key); !ok || !e.Bindable {
			return nil, fmt.Errorf("%w: %s", ErrNotBindable, sel.Key)
		}
	}
	return s.catalog.Instantiate(sel.Key, s.tree.NewKey)
}

// insert plans, applies and persists one insertion. It returns the content
// node once the tree has changed, even when persistence then fails.
func (s *Session) insert(ctx context.Context, bp *domain.Node, target domain.Path, action tree.Op) (Change, *domain.Node, error) {
	node, err := s.tree.Lookup(target)
	if err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, nil, err
	}
	plan, err := grid.Plan(node, target, bp, action, s.tree.NewKey)
	if err != nil {
		s.emitMutation(ctx, domain.EventRejected, action, target, nil, err)
		return Change{}, nil, err
	}
	path, err := s.tree.Apply(plan.Op, plan.Node, plan.Path)
	if err != nil {
		s.logger.Warn("insert rejected", "op", plan.Op, "path", plan.Path.String(), "err", err)
		s.emitMutation(ctx, domain.EventRejected, plan.Op, plan.Path, nil, err)
		return Change{}, nil, err
	}
	s.touch()

	ch := Change{
		Op:   plan.Op,
		Path: path,
		Keys: subtreeKeys(plan.Node),
	}
	if plan.Wrapped {
		ch.Content = s.tree.MustResolve(plan.Content)
	}
	s.emitMutation(ctx, domain.EventInsert, plan.Op, path, ch.Keys, nil)

	rec := ports.Record{
		Op:       string(plan.Op),
		Path:     path.Clone(),
		Position: plan.Node.Parent().IndexOf(plan.Node.Key),
		Node:     plan.Node.Clone(),
	}
	return ch, plan.Content, s.persist(ctx, rec)
}

func (s *Session) remove(ctx context.Context, path domain.Path) (Change, error) {
	positions, err := s.positions(path)
	if err != nil {
		s.emitMutation(ctx, domain.EventRejected, tree.OpRemove, path, nil, err)
		return Change{}, err
	}
	removed, err := s.tree.DeepRemove(path)
	if err != nil {
		s.logger.Warn("remove rejected", "path", path.String(), "err", err)
		s.emitMutation(ctx, domain.EventRejected, tree.OpRemove, path, nil, err)
		return Change{}, err
	}
	s.touch()

	outer := removed[len(removed)-1]
	outerPath := tree.RemovedPath(path, removed)
	s.forget(outer)

	ch := Change{
		Op:   tree.OpRemove,
		Path: outerPath,
		Keys: subtreeKeys(outer),
	}
	s.emitMutation(ctx, domain.EventRemove, tree.OpRemove, outerPath, ch.Keys, nil)

	rec := ports.Record{
		Op:       string(tree.OpRemove),
		Path:     outerPath.Clone(),
		Position: positions[len(outerPath)-1],
		Node:     outer.Clone(),
	}
	return ch, s.persist(ctx, rec)
}

// positions returns, for each segment of path, the index of that node
// among its siblings.
func (s *Session) positions(path domain.Path) ([]int, error) {
	if path.IsRoot() {
		return nil, tree.ErrRemoveRoot
	}
	out := make([]int, len(path))
	cur := s.tree.Root()
	for i, key := range path {
		next, ok := cur.Child(key)
		if !ok {
			return nil, &domain.PathNotFoundError{Path: path.Clone()}
		}
		out[i] = cur.IndexOf(key)
		cur = next
	}
	return out, nil
}

// forget drops every registry entry displayed by a node in the removed
// subtree.
func (s *Session) forget(removed *domain.Node) {
	removed.Walk(func(n *domain.Node) bool {
		name, err := registry.DisplayedName(n)
		if err != nil || name == "" {
			return true
		}
		if cur, ok := s.displayed.Get(name); ok && cur == n {
			s.displayed.Remove(name)
		}
		return true
	})
	for _, name := range s.displayed.Names() {
		n, _ := s.displayed.Get(name)
		if _, err := s.tree.Resolve(n); err != nil {
			s.displayed.Remove(name)
		}
	}
}

// fieldBlueprint turns a collection field into a form item: a copy of its
// uiSchema named after the field, referencing the uiSchema key.
func fieldBlueprint(f domain.Field) (*domain.Node, error) {
	raw, err := json.Marshal(f.UISchema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode field uiSchema: %w", err)
	}
	var n domain.Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("failed to decode field uiSchema: %w", err)
	}
	n.ReferenceKey = n.Key
	if n.ReferenceKey == "" {
		n.ReferenceKey = f.Key
	}
	n.Key = ""
	n.Name = f.Name
	if n.Decorator == "" {
		n.Decorator = domain.DecoratorFormItem
	}
	return &n, nil
}

func subtreeKeys(n *domain.Node) []string {
	var keys []string
	n.Walk(func(c *domain.Node) bool {
		keys = append(keys, c.Key)
		return true
	})
	return keys
}
