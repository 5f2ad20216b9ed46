package schema

import (
	"fmt"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// CollectionSchema describes a collection definition. A missing name is
// filled in by the collection service.
func CollectionSchema() Schema {
	return Schema{
		"name":   Optional(Identifier()),
		"title":  Optional(String()),
		"fields": Optional(Slice(Map())),
	}
}

// FieldSchema describes a field definition whose interface must be one of
// interfaces.
func FieldSchema(interfaces ...string) Schema {
	return Schema{
		"name":      Optional(Identifier()),
		"interface": OneOf(interfaces...),
		"title":     Optional(String()),
		"uiSchema":  Optional(Map()),
	}
}

// DecodeCollection validates def and decodes it, fields included.
func DecodeCollection(def map[string]any, interfaces ...string) (domain.Collection, error) {
	var c domain.Collection
	if err := Validate(CollectionSchema(), def); err != nil {
		return c, err
	}
	if raw, ok := def["fields"].([]any); ok {
		var errs []error
		for i, f := range raw {
			if err := Validate(FieldSchema(interfaces...), f.(map[string]any)); err != nil {
				for _, e := range ValidationErrors(err) {
					errs = append(errs, fmt.Errorf("fields[%d]: %w", i, e))
				}
			}
		}
		if len(errs) > 0 {
			return c, &AggregateError{Errors: errs}
		}
	}
	if err := mapstructure.Decode(def, &c); err != nil {
		return c, fmt.Errorf("failed to decode collection: %w", err)
	}
	return c, nil
}

// DecodeField validates def and decodes it.
func DecodeField(def map[string]any, interfaces ...string) (domain.Field, error) {
	var f domain.Field
	if err := Validate(FieldSchema(interfaces...), def); err != nil {
		return f, err
	}
	if err := mapstructure.Decode(def, &f); err != nil {
		return f, fmt.Errorf("failed to decode field: %w", err)
	}
	return f, nil
}
