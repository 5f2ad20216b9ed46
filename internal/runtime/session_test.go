package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/blocks/pkg/adapters/memory"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/grid"
	"github.com/aretw0/blocks/pkg/persistence"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/aretw0/blocks/pkg/session"
	"github.com/aretw0/blocks/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqKeys() domain.KeyGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

// recorder is a SchemaPersister that keeps every record and can be told to fail.
type recorder struct {
	mu      sync.Mutex
	records []ports.Record
	fail    error
}

func (r *recorder) CreateSchema(ctx context.Context, pageID string, rec ports.Record) error {
	return r.add(rec)
}

func (r *recorder) RemoveSchema(ctx context.Context, pageID string, rec ports.Record) error {
	return r.add(rec)
}

func (r *recorder) add(rec ports.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.fail
}

func newSession(t *testing.T, opts ...SessionOption) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]SessionOption{WithKeyGenerator(seqKeys()), WithPersister(rec)}, opts...)
	s, err := NewSession(domain.NewPage("p", "root"), opts...)
	require.NoError(t, err)
	return s, rec
}

func lookup(t *testing.T, s *Session, path domain.Path) *domain.Node {
	t.Helper()
	tr, err := tree.New(s.Snapshot().Root)
	require.NoError(t, err)
	n, err := tr.Lookup(path)
	require.NoError(t, err)
	return n
}

func TestSession_ExampleScenario(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()

	a, err := s.AddBlock(ctx, Selection{Key: "Markdown.Void"}, nil, tree.OpInsertAfter)
	require.NoError(t, err)
	assert.Equal(t, tree.OpAppendChild, a.Op)
	require.Len(t, a.Path, 1)
	require.Len(t, a.Content, 3)

	b, err := s.AddBlock(ctx, Selection{Key: "Chart.Bar"}, a.Content, tree.OpInsertAfter)
	require.NoError(t, err)
	assert.Equal(t, tree.OpInsertAfter, b.Op)
	require.Len(t, b.Path, 1, "B lands in a new row beside A's row")
	assert.Equal(t, []string{a.Path[0], b.Path[0]}, s.Snapshot().Root.ChildKeys())

	removed, err := s.Remove(ctx, a.Content)
	require.NoError(t, err)
	assert.Equal(t, a.Path, removed.Path, "A's row and column go with it")
	assert.Len(t, removed.Keys, 3)

	snap := s.Snapshot()
	assert.Equal(t, []string{b.Path[0]}, snap.Root.ChildKeys())
	assert.NoError(t, grid.Validate(snap.Root))
	assert.Equal(t, "Chart.Bar", lookup(t, s, b.Content).Component)

	require.Len(t, rec.records, 3)
	assert.Equal(t, "appendChild", rec.records[0].Op)
	assert.Equal(t, 0, rec.records[0].Position)
	assert.Equal(t, domain.ComponentRow, rec.records[0].Node.Component)
	assert.Equal(t, "insertAfter", rec.records[1].Op)
	assert.Equal(t, 1, rec.records[1].Position)
	assert.Equal(t, "remove", rec.records[2].Op)
	assert.Equal(t, a.Path, rec.records[2].Path)
	assert.Equal(t, 0, rec.records[2].Position)
}

func TestSession_InsertRemoveInverse(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()

	a, err := s.AddBlock(ctx, Selection{Key: "Markdown.Void"}, nil, tree.OpInsertAfter)
	require.NoError(t, err)
	before := s.Snapshot().Root.ChildKeys()

	for _, action := range []tree.Op{tree.OpInsertBefore, tree.OpInsertAfter} {
		b, err := s.AddBlock(ctx, Selection{Key: "Chart.Column"}, a.Content, action)
		require.NoError(t, err)
		_, err = s.Remove(ctx, b.Content)
		require.NoError(t, err)
		assert.Equal(t, before, s.Snapshot().Root.ChildKeys(), "after %s", action)
	}
}

func TestSession_KeysStayUnique(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()

	var target domain.Path
	for _, key := range []string{"Table", "Form", "Ref.ActionLogs", "Pane.Details", "Chart.Bar"} {
		ch, err := s.AddBlock(ctx, Selection{Key: key}, target, tree.OpInsertAfter)
		require.NoError(t, err, key)
		target = ch.Content
	}

	seen := map[string]bool{}
	s.Snapshot().Root.Walk(func(n *domain.Node) bool {
		assert.False(t, seen[n.Key], "duplicate key %q", n.Key)
		seen[n.Key] = true
		return true
	})
	assert.NoError(t, grid.Validate(s.Snapshot().Root))
}

func TestSession_LayoutTargetsKeepGridShape(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()

	a, err := s.AddBlock(ctx, Selection{Key: "Markdown.Void"}, nil, tree.OpInsertAfter)
	require.NoError(t, err)
	rowPath := a.Path
	colPath := a.Content.Parent()

	check := func(ch Change, component string) {
		t.Helper()
		require.NoError(t, grid.Validate(s.Snapshot().Root))
		content := ch.Content
		if content == nil {
			content = ch.Path
		}
		assert.Equal(t, component, lookup(t, s, content).Component)
	}

	chart, err := s.AddBlock(ctx, Selection{Key: "Chart.Bar"}, rowPath, tree.OpInsertAfter)
	require.NoError(t, err)
	check(chart, "Chart.Bar")
	assert.Len(t, chart.Content, 3, "a row target gets a sibling row")
	assert.Equal(t, []string{rowPath[0], chart.Path[0]}, s.Snapshot().Root.ChildKeys())

	table, err := s.AddBlock(ctx, Selection{Key: "Table"}, colPath, tree.OpInsertBefore)
	require.NoError(t, err)
	check(table, "Table")
	assert.Len(t, table.Content, 3, "a column target gets a sibling column")
	assert.Equal(t, table.Path, table.Content.Parent())
	assert.Equal(t, 2, lookup(t, s, rowPath).Len())

	md, err := s.AddBlock(ctx, Selection{Key: "Markdown.Void"}, chart.Content, tree.OpAppendChild)
	require.NoError(t, err)
	check(md, "Markdown.Void")
	assert.Equal(t, tree.OpInsertAfter, md.Op, "appending at a grid block adds a row after it")
	assert.Len(t, md.Path, 1)

	col, err := s.AddBlock(ctx, Selection{Key: "Chart.Column"}, rowPath, tree.OpAppendChild)
	require.NoError(t, err)
	check(col, "Chart.Column")
	assert.Equal(t, 3, lookup(t, s, rowPath).Len(), "appending to a row adds a column")

	inCol, err := s.AddBlock(ctx, Selection{Key: "Chart.Column"}, colPath, tree.OpAppendChild)
	require.NoError(t, err)
	check(inCol, "Chart.Column")
	assert.Nil(t, inCol.Content, "appending to a column adds the bare block")
	assert.Equal(t, colPath, inCol.Path.Parent())
	assert.Equal(t, 2, lookup(t, s, colPath).Len())
}

func TestSession_FailedNewCollectionInsertCreatesNothing(t *testing.T) {
	cols := memory.NewCollections()
	s, rec := newSession(t, WithCollections(cols))
	ctx := context.Background()

	_, err := s.AddBlock(ctx, Selection{Key: "Table", NewCollection: true, Title: "Orders"}, domain.Path{"nope"}, tree.OpInsertAfter)
	require.ErrorIs(t, err, domain.ErrPathNotFound)

	list, err := cols.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, rec.records)
}

func TestSession_PageIDDuringReload(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewRepository(session.NewManager(memory.NewStore()))
	page, err := repo.Page(ctx, "p")
	require.NoError(t, err)
	s, err := NewSession(page, WithPersister(repo), WithLoader(repo))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Reload(ctx))
		}()
		go func() {
			defer wg.Done()
			assert.Equal(t, "p", s.PageID())
		}()
	}
	wg.Wait()
}

func formGrid(t *testing.T, s *Session) domain.Path {
	t.Helper()
	form, err := s.AddBlock(context.Background(), Selection{Key: "Form"}, nil, tree.OpInsertAfter)
	require.NoError(t, err)
	node := lookup(t, s, form.Content)
	require.Equal(t, 1, node.Len())
	return form.Content.Child(node.ChildKeys()[0])
}

func TestSession_ToggleField(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	gridPath := formGrid(t, s)

	on, err := s.ToggleField(ctx, "email", gridPath, tree.OpInsertAfter)
	require.NoError(t, err)
	assert.True(t, on.Checked)
	assert.Equal(t, tree.OpAppendChild, on.Op, "a grid target appends a wrapped field")
	assert.True(t, s.IsDisplayed("email"))
	field := lookup(t, s, on.Content)
	assert.Equal(t, domain.ComponentFormField, field.Component)
	assert.Equal(t, "email", field.Prop(domain.PropFieldName))

	off, err := s.ToggleField(ctx, "email", gridPath, tree.OpInsertAfter)
	require.NoError(t, err)
	assert.False(t, off.Checked)
	assert.Equal(t, tree.OpRemove, off.Op)
	assert.Equal(t, on.Path, off.Path, "the field's row is reported, not just the field")
	assert.False(t, s.IsDisplayed("email"))
	assert.Equal(t, 0, lookup(t, s, gridPath).Len(), "the inner grid survives, empty")

	last := rec.records[len(rec.records)-1]
	assert.Equal(t, "remove", last.Op)
	assert.Equal(t, domain.ComponentRow, last.Node.Component)
}

func TestSession_AddCollectionField(t *testing.T) {
	cols := memory.NewCollections()
	s, _ := newSession(t, WithCollections(cols))
	ctx := context.Background()
	_, err := cols.CreateOrUpdateCollection(ctx, map[string]any{"name": "orders"})
	require.NoError(t, err)
	gridPath := formGrid(t, s)

	ch, err := s.AddCollectionField(ctx, "orders", map[string]any{"interface": "input", "title": "Email"}, gridPath, tree.OpInsertAfter)
	require.NoError(t, err)
	assert.True(t, ch.Checked)

	c, err := cols.GetCollection(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, c.Fields, 1)
	f := c.Fields[0]

	n := lookup(t, s, ch.Content)
	assert.Equal(t, f.Name, n.Name)
	assert.Equal(t, f.Key, n.ReferenceKey)
	assert.NotEqual(t, f.Key, n.Key, "the copy gets its own key")
	assert.Equal(t, "Email", n.Title)
	assert.True(t, s.IsDisplayed(f.Name))

	_, err = s.AddCollectionField(ctx, "missing", map[string]any{"interface": "input"}, gridPath, tree.OpInsertAfter)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestSession_NewAndExistingCollectionBinding(t *testing.T) {
	cols := memory.NewCollections()
	s, _ := newSession(t, WithCollections(cols))
	ctx := context.Background()

	ch, err := s.AddBlock(ctx, Selection{Menu: "card", Key: "Table", NewCollection: true, Title: "Orders"}, nil, tree.OpInsertAfter)
	require.NoError(t, err)
	table := lookup(t, s, ch.Content)
	name, _ := table.Prop(domain.PropCollectionName).(string)
	assert.True(t, strings.HasPrefix(name, "t_"), "generated collection name %q", name)
	assert.Equal(t, name, table.Prop(domain.PropResource))

	list, err := cols.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Orders", list[0].Title)

	ch, err = s.AddBlock(ctx, Selection{Key: "collection." + name + ".Form"}, ch.Content, tree.OpInsertAfter)
	require.NoError(t, err)
	assert.Equal(t, name, lookup(t, s, ch.Content).Prop(domain.PropCollectionName))
}

func TestSession_RejectionsLeaveTreeUnchanged(t *testing.T) {
	var events []*domain.MutationEvent
	hooks := domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) { events = append(events, e) },
	}
	s, rec := newSession(t, WithLifecycleHooks(hooks))
	ctx := context.Background()

	cases := []struct {
		sel    Selection
		target domain.Path
		want   error
		kind   string
	}{
		{Selection{Key: "Table"}, domain.Path{"ghost"}, domain.ErrPathNotFound, "path_not_found"},
		{Selection{Key: "Calendar"}, nil, domain.ErrDisabledBlueprint, "blueprint"},
		{Selection{Key: "Nope"}, nil, domain.ErrUnknownBlueprint, "blueprint"},
		{Selection{Menu: "pane", Key: "Chart.Bar"}, nil, ErrNotInMenu, "blueprint"},
		{Selection{Key: "Markdown.Void", Collection: "orders"}, nil, ErrNotBindable, "blueprint"},
		{Selection{Key: "Table", NewCollection: true}, nil, ErrNoCollections, "collection"},
	}
	for _, tc := range cases {
		_, err := s.AddBlock(ctx, tc.sel, tc.target, tree.OpInsertAfter)
		assert.ErrorIs(t, err, tc.want, tc.sel.Key)
		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, domain.EventRejected, last.Type)
		assert.Equal(t, tc.kind, last.Kind, tc.sel.Key)
	}

	_, err := s.Remove(ctx, nil)
	assert.ErrorIs(t, err, tree.ErrRemoveRoot)

	assert.Equal(t, 0, s.Snapshot().Root.Len())
	assert.Empty(t, rec.records)
}

func TestSession_PersistenceFailureKeepsMutation(t *testing.T) {
	var persisted []*domain.PersistEvent
	hooks := domain.LifecycleHooks{
		OnPersist: func(ctx context.Context, e *domain.PersistEvent) { persisted = append(persisted, e) },
	}
	s, rec := newSession(t, WithLifecycleHooks(hooks))
	rec.fail = errors.New("remote unavailable")
	ctx := context.Background()

	ch, err := s.ToggleField(ctx, "email", formGridUnpersisted(t, s, rec), tree.OpInsertAfter)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "create", perr.Op)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	assert.True(t, ch.Checked)
	assert.True(t, s.IsDisplayed("email"), "registry follows the local tree")
	assert.Equal(t, domain.ComponentFormField, lookup(t, s, ch.Content).Component)

	require.NotEmpty(t, persisted)
	assert.Equal(t, domain.EventPersistFailed, persisted[len(persisted)-1].Type)
}

// formGridUnpersisted adds a form while rec is healthy, then restores its failure.
func formGridUnpersisted(t *testing.T, s *Session, rec *recorder) domain.Path {
	t.Helper()
	fail := rec.fail
	rec.fail = nil
	defer func() { rec.fail = fail }()
	return formGrid(t, s)
}

func TestSession_ReloadRestoresDurableState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := persistence.NewRepository(session.NewManager(store))
	page, err := repo.Page(ctx, "p")
	require.NoError(t, err)

	s, err := NewSession(page, WithPersister(repo), WithLoader(repo))
	require.NoError(t, err)

	gridPath := formGrid(t, s)
	_, err = s.ToggleField(ctx, "email", gridPath, tree.OpInsertAfter)
	require.NoError(t, err)

	// A second session sees the durable tree and its displayed fields.
	page, err = repo.Page(ctx, "p")
	require.NoError(t, err)
	other, err := NewSession(page, WithPersister(repo), WithLoader(repo))
	require.NoError(t, err)
	assert.True(t, other.IsDisplayed("email"))
	assert.Equal(t, s.Snapshot().Root.ChildKeys(), other.Snapshot().Root.ChildKeys())

	// Diverge locally without persistence, then recover.
	s.persister = &recorder{fail: errors.New("down")}
	_, err = s.AddBlock(ctx, Selection{Key: "Chart.Bar"}, nil, tree.OpInsertAfter)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 2, s.Snapshot().Root.Len())

	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, 1, s.Snapshot().Root.Len())
	assert.True(t, s.IsDisplayed("email"))
}

func TestParseSelection(t *testing.T) {
	assert.Equal(t, Selection{Key: "Chart.Bar", Collection: "t_ab12"}, ParseSelection("collection.t_ab12.Chart.Bar"))
	assert.Equal(t, Selection{Key: "Table"}, ParseSelection("Table"))
	assert.Equal(t, Selection{Key: "collection.orders"}, ParseSelection("collection.orders"))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "duplicate_key", ErrorKind(&domain.DuplicateKeyError{Key: "k"}))
	assert.Equal(t, "detached", ErrorKind(fmt.Errorf("wrap: %w", &domain.DetachedNodeError{})))
	assert.Equal(t, "persistence", ErrorKind(&domain.PersistenceError{Err: errors.New("x")}))
	assert.Equal(t, "invalid_target", ErrorKind(tree.ErrRemoveRoot))
	assert.Equal(t, "invalid_target", ErrorKind(&grid.LayoutError{Parent: "g", Child: "x", Want: domain.ComponentRow}))
	assert.Equal(t, "blueprint", ErrorKind(fmt.Errorf("%w: x", ErrNotInMenu)))
	assert.Equal(t, "other", ErrorKind(errors.New("x")))
}
