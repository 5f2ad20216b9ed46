package domain

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// nodeJSON is the wire shape of a Node. It follows the ISchema layout the
// rendering layer already understands; children travel as an ordered object.
type nodeJSON struct {
	Key            string                                  `json:"key,omitempty"`
	Name           string                                  `json:"name,omitempty"`
	Type           Kind                                    `json:"type,omitempty"`
	Title          string                                  `json:"title,omitempty"`
	Component      string                                  `json:"x-component,omitempty"`
	Decorator      string                                  `json:"x-decorator,omitempty"`
	DesignableBar  string                                  `json:"x-designable-bar,omitempty"`
	ReadPretty     bool                                    `json:"x-read-pretty,omitempty"`
	Default        any                                     `json:"default,omitempty"`
	ReferenceKey   string                                  `json:"referenceKey,omitempty"`
	Props          map[string]any                          `json:"x-component-props,omitempty"`
	DecoratorProps map[string]any                          `json:"x-decorator-props,omitempty"`
	Properties     *orderedmap.OrderedMap[string, *Node] `json:"properties,omitempty"`
}

// MarshalJSON encodes the node and its subtree. The parent link is not encoded.
func (n *Node) MarshalJSON() ([]byte, error) {
	wire := nodeJSON{
		Key:            n.Key,
		Name:           n.Name,
		Type:           n.Type,
		Title:          n.Title,
		Component:      n.Component,
		Decorator:      n.Decorator,
		DesignableBar:  n.DesignableBar,
		ReadPretty:     n.ReadPretty,
		Default:        n.Default,
		ReferenceKey:   n.ReferenceKey,
		Props:          n.Props,
		DecoratorProps: n.DecoratorProps,
	}
	if n.Len() > 0 {
		wire.Properties = n.children
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a node and rebuilds the parent links of its subtree.
// A child without a key takes the property name it was stored under.
func (n *Node) UnmarshalJSON(data []byte) error {
	var wire nodeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*n = Node{
		Key:            wire.Key,
		Name:           wire.Name,
		Type:           wire.Type,
		Title:          wire.Title,
		Component:      wire.Component,
		Decorator:      wire.Decorator,
		DesignableBar:  wire.DesignableBar,
		ReadPretty:     wire.ReadPretty,
		Default:        wire.Default,
		ReferenceKey:   wire.ReferenceKey,
		Props:          wire.Props,
		DecoratorProps: wire.DecoratorProps,
	}
	if wire.Properties == nil {
		return nil
	}
	i := 0
	for pair := wire.Properties.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		if child == nil {
			return fmt.Errorf("property %q: null schema", pair.Key)
		}
		if child.Key == "" {
			child.Key = pair.Key
		}
		if _, exists := n.Child(child.Key); exists {
			return fmt.Errorf("property %q: %w", pair.Key, &DuplicateKeyError{Key: child.Key})
		}
		n.AttachChild(child, i)
		i++
	}
	return nil
}

// NodeFromMap converts a loosely typed schema (for example a collection
// field's uiSchema) into a detached Node.
func NodeFromMap(m map[string]any) (*Node, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema map: %w", err)
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode schema map: %w", err)
	}
	return &n, nil
}
