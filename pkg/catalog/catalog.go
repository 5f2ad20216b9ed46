// Package catalog maps menu selections to blueprint schemas.
//
// The default catalog is embedded from blueprints.yaml. A blueprint is a
// template: Instantiate returns a fresh detached copy in which every node
// has a new key.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/aretw0/blocks/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed blueprints.yaml
var defaultCatalog []byte

// Menu names used by the designer.
const (
	MenuCard = "card"
	MenuPane = "pane"
	MenuForm = "form"
)

// FieldItemKey is the blueprint used when a field is toggled on.
const FieldItemKey = "Form.Field"

// Entry is one selectable menu item.
type Entry struct {
	Key      string `yaml:"key" json:"key"`
	Title    string `yaml:"title" json:"title"`
	Bindable bool   `yaml:"bindable" json:"bindable,omitempty"`
	Disabled bool   `yaml:"disabled" json:"disabled,omitempty"`
}

// Group is a titled run of menu entries.
type Group struct {
	Title string  `yaml:"title" json:"title"`
	Items []Entry `yaml:"items" json:"items"`
}

// Interface is a field type offered when creating a collection field.
type Interface struct {
	Name     string         `yaml:"name" json:"name"`
	Title    string         `yaml:"title" json:"title"`
	Group    string         `yaml:"group" json:"group"`
	UISchema map[string]any `yaml:"uiSchema" json:"uiSchema"`
}

type file struct {
	Interfaces []Interface            `yaml:"interfaces"`
	Blueprints map[string]*schemaYAML `yaml:"blueprints"`
	Menus      map[string][]Group     `yaml:"menus"`
}

// Catalog is an immutable set of blueprints, menus and field interfaces.
type Catalog struct {
	blueprints map[string]*domain.Node
	menus      map[string][]Group
	entries    map[string]Entry
	interfaces []Interface
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		blueprints: make(map[string]*domain.Node, len(f.Blueprints)),
		menus:      f.Menus,
		entries:    make(map[string]Entry),
		interfaces: f.Interfaces,
	}
	for key, s := range f.Blueprints {
		c.blueprints[key] = s.node()
	}
	for menu, groups := range f.Menus {
		for _, g := range groups {
			for _, e := range g.Items {
				if _, ok := c.blueprints[e.Key]; !ok && !e.Disabled {
					return nil, fmt.Errorf("menu %s: entry %q has no blueprint", menu, e.Key)
				}
				c.entries[e.Key] = e
			}
		}
	}
	return c, nil
}

// Menu returns the groups of the named menu.
func (c *Catalog) Menu(name string) []Group {
	return c.menus[name]
}

// Menus returns the menu names, sorted.
func (c *Catalog) Menus() []string {
	names := make([]string, 0, len(c.menus))
	for name := range c.menus {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InMenu reports whether key is listed in the named menu.
func (c *Catalog) InMenu(menu, key string) bool {
	for _, g := range c.menus[menu] {
		for _, e := range g.Items {
			if e.Key == key {
				return true
			}
		}
	}
	return false
}

// Entry returns the menu entry for key.
func (c *Catalog) Entry(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Interfaces returns the field interfaces in catalog order.
func (c *Catalog) Interfaces() []Interface {
	return c.interfaces
}

// InterfaceNames returns the names of every field interface.
func (c *Catalog) InterfaceNames() []string {
	names := make([]string, len(c.interfaces))
	for i, iface := range c.interfaces {
		names[i] = iface.Name
	}
	return names
}

// Interface returns the named field interface.
func (c *Catalog) Interface(name string) (Interface, bool) {
	for _, iface := range c.interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// Instantiate returns a detached copy of the blueprint for key with a fresh
// key on every node. Disabled menu entries are rejected.
func (c *Catalog) Instantiate(key string, newKey domain.KeyGenerator) (*domain.Node, error) {
	if e, ok := c.entries[key]; ok && e.Disabled {
		return nil, fmt.Errorf("%w: %s", domain.ErrDisabledBlueprint, key)
	}
	tmpl, ok := c.blueprints[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBlueprint, key)
	}
	if newKey == nil {
		newKey = domain.NewKey
	}
	return tmpl.CloneWithKeys(newKey), nil
}

// FieldItem instantiates the blueprint that displays a collection field.
func (c *Catalog) FieldItem(fieldName string, newKey domain.KeyGenerator) (*domain.Node, error) {
	n, err := c.Instantiate(FieldItemKey, newKey)
	if err != nil {
		return nil, err
	}
	n.SetProp(domain.PropFieldName, fieldName)
	return n, nil
}

// Bind points a block at a collection.
func Bind(n *domain.Node, collection string) {
	n.SetProp(domain.PropResource, collection)
	n.SetProp(domain.PropCollectionName, collection)
}
