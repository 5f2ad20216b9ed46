// Package registry tracks which data fields a page currently displays.
package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Registry maps a data-field name to the node currently rendering it.
// One registry belongs to one editing session.
type Registry struct {
	mu     sync.RWMutex
	fields map[string]*domain.Node
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fields: make(map[string]*domain.Node),
	}
}

// Set records that name is rendered by n.
// If the name is already registered, it is overwritten.
func (r *Registry) Set(name string, n *domain.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[name] = n
}

// Get returns the node rendering name.
func (r *Registry) Get(name string) (*domain.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.fields[name]
	return n, ok
}

// Has reports whether name is displayed.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Remove forgets name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.fields, name)
}

// Clear forgets every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.fields)
}

// Names returns the registered field names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many fields are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}

type displayedProps struct {
	DisplayName string `mapstructure:"displayName"`
	FieldName   string `mapstructure:"fieldName"`
}

// Rebuild replaces the registry contents with the fields displayed under
// root: nodes decorated with AddNew.Displayed (keyed by their displayName
// decorator prop), Form.Field nodes (keyed by their fieldName prop) and
// collection field copies (keyed by name). When two nodes display the same
// name the later one in tree order wins.
func (r *Registry) Rebuild(root *domain.Node) error {
	found := make(map[string]*domain.Node)
	var err error
	root.Walk(func(n *domain.Node) bool {
		if err != nil {
			return false
		}
		name, derr := DisplayedName(n)
		if derr != nil {
			err = derr
			return false
		}
		if name != "" {
			found[name] = n
		}
		return true
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = found
	return nil
}

// DisplayedName returns the field name n displays, or "" if it displays none.
// A node copied from a collection field's uiSchema displays its own name.
func DisplayedName(n *domain.Node) (string, error) {
	var src map[string]any
	switch {
	case n.ReferenceKey != "" && n.Name != "":
		return n.Name, nil
	case n.Decorator == domain.DecoratorDisplayed:
		src = n.DecoratorProps
	case n.Component == domain.ComponentFormField:
		src = n.Props
	default:
		return "", nil
	}
	if src == nil {
		return "", nil
	}
	var props displayedProps
	if err := mapstructure.Decode(src, &props); err != nil {
		return "", err
	}
	if n.Decorator == domain.DecoratorDisplayed {
		return props.DisplayName, nil
	}
	return props.FieldName, nil
}
