package schema

import (
	"sort"
)

// Schema is a map of field names to their expected types.
type Schema map[string]Type

// Validate checks data against the schema and returns every failure found,
// ordered by key. Keys not named by the schema are ignored.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		fieldType := schema[key]
		value, exists := data[key]
		if !exists || value == nil {
			if !isOptional(fieldType) {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
