package dsl

import "github.com/aretw0/blocks/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node and its children.
type NodeBuilder struct {
	node     *domain.Node
	children []*NodeBuilder
}

// Node starts a node with the given key, kind and component.
func Node(key string, kind domain.Kind, component string, children ...*NodeBuilder) *NodeBuilder {
	return &NodeBuilder{
		node:     domain.NewNode(key, kind, component),
		children: children,
	}
}

// Grid starts a page grid.
func Grid(key string, rows ...*NodeBuilder) *NodeBuilder {
	return Node(key, domain.KindVoid, domain.ComponentGrid, rows...)
}

// Row starts a grid row.
func Row(key string, cols ...*NodeBuilder) *NodeBuilder {
	return Node(key, domain.KindVoid, domain.ComponentRow, cols...)
}

// Col starts a grid column.
func Col(key string, blocks ...*NodeBuilder) *NodeBuilder {
	return Node(key, domain.KindVoid, domain.ComponentCol, blocks...)
}

// Block starts a void content block rendered by component.
func Block(key, component string, children ...*NodeBuilder) *NodeBuilder {
	return Node(key, domain.KindVoid, component, children...)
}

// Field starts a Form.Field item displaying the named collection field.
func Field(key, fieldName string) *NodeBuilder {
	return Block(key, domain.ComponentFormField).
		Decorator(domain.DecoratorFormItem).
		Prop(domain.PropFieldName, fieldName)
}

// Note starts a read-pretty markdown item.
func Note(key, text string) *NodeBuilder {
	return Block(key, "Markdown.Void").
		Decorator(domain.DecoratorFormItem).
		ReadPretty().
		Default(text)
}

// Name sets the data field name.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// Title sets the display title.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Kind overrides the data-shape role.
func (n *NodeBuilder) Kind(kind domain.Kind) *NodeBuilder {
	n.node.Type = kind
	return n
}

// Decorator sets the wrapper component.
func (n *NodeBuilder) Decorator(decorator string) *NodeBuilder {
	n.node.Decorator = decorator
	return n
}

// DesignableBar sets the designer toolbar component.
func (n *NodeBuilder) DesignableBar(bar string) *NodeBuilder {
	n.node.DesignableBar = bar
	return n
}

// ReadPretty renders the node read-only.
func (n *NodeBuilder) ReadPretty() *NodeBuilder {
	n.node.ReadPretty = true
	return n
}

// Default sets the initial value.
func (n *NodeBuilder) Default(value any) *NodeBuilder {
	n.node.Default = value
	return n
}

// Prop sets one component prop.
func (n *NodeBuilder) Prop(name string, value any) *NodeBuilder {
	n.node.SetProp(name, value)
	return n
}

// DecoratorProp sets one decorator prop.
func (n *NodeBuilder) DecoratorProp(name string, value any) *NodeBuilder {
	if n.node.DecoratorProps == nil {
		n.node.DecoratorProps = make(map[string]any)
	}
	n.node.DecoratorProps[name] = value
	return n
}

// Reference marks the node as a copy of the uiSchema with key ref.
func (n *NodeBuilder) Reference(ref string) *NodeBuilder {
	n.node.ReferenceKey = ref
	return n
}

// Displayed wraps the node in the toggle decorator under name.
func (n *NodeBuilder) Displayed(name string) *NodeBuilder {
	return n.Decorator(domain.DecoratorDisplayed).DecoratorProp(domain.PropDisplayName, name)
}

// Bind points the block at a collection.
func (n *NodeBuilder) Bind(collection string) *NodeBuilder {
	return n.Prop(domain.PropResource, collection).Prop(domain.PropCollectionName, collection)
}

// Add appends children after the ones already given.
func (n *NodeBuilder) Add(children ...*NodeBuilder) *NodeBuilder {
	n.children = append(n.children, children...)
	return n
}

// Build returns a fresh detached node tree. Each call builds a new copy.
func (n *NodeBuilder) Build() *domain.Node {
	out := n.node.Clone()
	for i, c := range n.children {
		out.AttachChild(c.Build(), i)
	}
	return out
}
