package catalog

import (
	"maps"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/schema"
)

// NewCollection validates a collection definition and fills in what the
// designer generates: a t_ name and f_ names for unnamed fields.
func (c *Catalog) NewCollection(def map[string]any, newKey domain.KeyGenerator) (domain.Collection, error) {
	if newKey == nil {
		newKey = domain.NewKey
	}
	col, err := schema.DecodeCollection(def, c.InterfaceNames()...)
	if err != nil {
		return col, err
	}
	if col.Name == "" {
		col.Name = "t_" + newKey()
	}
	for i := range col.Fields {
		c.completeField(&col.Fields[i], newKey)
	}
	return col, nil
}

// NewField validates a field definition and completes it: generated key and
// f_ name, and a uiSchema seeded from the field's interface.
func (c *Catalog) NewField(def map[string]any, newKey domain.KeyGenerator) (domain.Field, error) {
	if newKey == nil {
		newKey = domain.NewKey
	}
	f, err := schema.DecodeField(def, c.InterfaceNames()...)
	if err != nil {
		return f, err
	}
	c.completeField(&f, newKey)
	return f, nil
}

func (c *Catalog) completeField(f *domain.Field, newKey domain.KeyGenerator) {
	if f.Key == "" {
		f.Key = newKey()
	}
	if f.Name == "" {
		f.Name = "f_" + newKey()
	}

	ui := make(map[string]any)
	if iface, ok := c.Interface(f.Interface); ok {
		maps.Copy(ui, domain.CloneProps(iface.UISchema))
	}
	maps.Copy(ui, domain.CloneProps(f.UISchema))
	ui["key"] = f.Key
	ui["name"] = f.Name
	if f.Title != "" {
		ui["title"] = f.Title
	}
	f.UISchema = ui
}
