package domain

// Collection describes a backing data table a block can bind to.
type Collection struct {
	Name   string  `json:"name" mapstructure:"name"`
	Title  string  `json:"title" mapstructure:"title"`
	Fields []Field `json:"fields" mapstructure:"fields"`
}

// Field describes one data field of a collection. UISchema is the schema
// fragment used when the field is placed on a page.
type Field struct {
	Key       string         `json:"key" mapstructure:"key"`
	Name      string         `json:"name" mapstructure:"name"`
	Interface string         `json:"interface" mapstructure:"interface"`
	Title     string         `json:"title,omitempty" mapstructure:"title"`
	UISchema  map[string]any `json:"uiSchema,omitempty" mapstructure:"uiSchema"`
}

// FieldByName returns the named field.
func (c *Collection) FieldByName(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
