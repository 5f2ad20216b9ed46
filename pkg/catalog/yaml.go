package catalog

import (
	"strconv"

	"github.com/aretw0/blocks/pkg/domain"
)

// schemaYAML is the catalog's authoring shape of a node. Children are a
// sequence so their order survives YAML decoding.
type schemaYAML struct {
	Name           string         `yaml:"name"`
	Type           domain.Kind    `yaml:"type"`
	Title          string         `yaml:"title"`
	Component      string         `yaml:"x-component"`
	Decorator      string         `yaml:"x-decorator"`
	DesignableBar  string         `yaml:"x-designable-bar"`
	ReadPretty     bool           `yaml:"x-read-pretty"`
	Default        any            `yaml:"default"`
	Props          map[string]any `yaml:"x-component-props"`
	DecoratorProps map[string]any `yaml:"x-decorator-props"`
	Properties     []*schemaYAML  `yaml:"properties"`
}

// node converts the template. Template keys are positional placeholders;
// Instantiate replaces all of them.
func (s *schemaYAML) node() *domain.Node {
	return s.build("t")
}

func (s *schemaYAML) build(key string) *domain.Node {
	n := domain.NewNode(key, s.Type, s.Component)
	n.Name = s.Name
	n.Title = s.Title
	n.Decorator = s.Decorator
	n.DesignableBar = s.DesignableBar
	n.ReadPretty = s.ReadPretty
	n.Default = s.Default
	n.Props = s.Props
	n.DecoratorProps = s.DecoratorProps
	for i, child := range s.Properties {
		n.AttachChild(child.build(key+"."+strconv.Itoa(i)), i)
	}
	return n
}
