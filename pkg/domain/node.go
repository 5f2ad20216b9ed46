package domain

import (
	"weak"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the data-shape role of a node.
type Kind string

const (
	KindVoid   Kind = "void"
	KindString Kind = "string"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// Node is one page element of the schema tree.
//
// Children are kept in insertion order and keyed by the child's Key.
// The parent link is non-owning: a detached subtree never keeps its former
// ancestors alive, and only the Tree that owns the root is allowed to
// attach or detach children.
type Node struct {
	Key           string
	Name          string
	Type          Kind
	Title         string
	Component     string
	Decorator     string
	DesignableBar string
	ReadPretty    bool
	Default       any
	ReferenceKey  string

	// Props configures the rendering widget (x-component-props).
	Props map[string]any
	// DecoratorProps configures the wrapper (x-decorator-props).
	DecoratorProps map[string]any

	children *orderedmap.OrderedMap[string, *Node]
	parent   weak.Pointer[Node]
}

// NewNode creates a detached node with no children.
func NewNode(key string, kind Kind, component string) *Node {
	return &Node{
		Key:       key,
		Type:      kind,
		Component: component,
	}
}

// Parent returns the node holding n in its children, or nil for a root or
// detached node.
func (n *Node) Parent() *Node {
	return n.parent.Value()
}

// Child returns the child stored under key.
func (n *Node) Child(key string) (*Node, bool) {
	if n.children == nil {
		return nil, false
	}
	return n.children.Get(key)
}

// Len reports the number of direct children.
func (n *Node) Len() int {
	if n.children == nil {
		return 0
	}
	return n.children.Len()
}

// Children returns the direct children in order.
// The slice is a copy; changing it does not change the tree.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.Len())
	if n.children == nil {
		return out
	}
	for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// ChildKeys returns the keys of the direct children in order.
func (n *Node) ChildKeys() []string {
	keys := make([]string, 0, n.Len())
	if n.children == nil {
		return keys
	}
	for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// IndexOf returns the position of the child stored under key, or -1.
func (n *Node) IndexOf(key string) int {
	if n.children == nil {
		return -1
	}
	i := 0
	for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == key {
			return i
		}
		i++
	}
	return -1
}

// AttachChild stores child under its Key at position index (clamped to
// [0, Len()]) and points its parent link at n.
// It does not check tree-wide key uniqueness; callers go through tree.Tree.
func (n *Node) AttachChild(child *Node, index int) {
	if n.children == nil {
		n.children = orderedmap.New[string, *Node]()
	}
	n.children.Set(child.Key, child)
	child.parent = weak.Make(n)

	count := n.children.Len()
	if index < 0 {
		index = 0
	}
	if index >= count-1 {
		return
	}
	mark := n.children.Oldest()
	for i := 0; i < index; i++ {
		mark = mark.Next()
	}
	_ = n.children.MoveBefore(child.Key, mark.Key)
}

// DetachChild removes the child stored under key and clears its parent link.
func (n *Node) DetachChild(key string) (*Node, bool) {
	if n.children == nil {
		return nil, false
	}
	child, ok := n.children.Delete(key)
	if !ok {
		return nil, false
	}
	child.parent = weak.Pointer[Node]{}
	return child, true
}

// Walk visits n and its descendants depth-first in child order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children() {
		child.Walk(fn)
	}
}

// Clone deep-copies n and its subtree. The copy is detached.
func (n *Node) Clone() *Node {
	return n.clone(nil)
}

// CloneWithKeys deep-copies n like Clone but gives every copied node a key
// from newKey.
func (n *Node) CloneWithKeys(newKey KeyGenerator) *Node {
	return n.clone(newKey)
}

func (n *Node) clone(newKey KeyGenerator) *Node {
	cp := &Node{
		Key:            n.Key,
		Name:           n.Name,
		Type:           n.Type,
		Title:          n.Title,
		Component:      n.Component,
		Decorator:      n.Decorator,
		DesignableBar:  n.DesignableBar,
		ReadPretty:     n.ReadPretty,
		Default:        cloneValue(n.Default),
		ReferenceKey:   n.ReferenceKey,
		Props:          cloneProps(n.Props),
		DecoratorProps: cloneProps(n.DecoratorProps),
	}
	if newKey != nil {
		cp.Key = newKey()
	}
	for i, child := range n.Children() {
		cp.AttachChild(child.clone(newKey), i)
	}
	return cp
}

// Prop returns a component prop, or nil.
func (n *Node) Prop(name string) any {
	if n.Props == nil {
		return nil
	}
	return n.Props[name]
}

// SetProp sets a component prop, allocating the bag on first use.
func (n *Node) SetProp(name string, value any) {
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	n.Props[name] = value
}

// CloneProps deep-copies a loosely typed property bag.
func CloneProps(m map[string]any) map[string]any {
	return cloneProps(m)
}

func cloneProps(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneProps(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
