package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "map").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IdentifierType validates names usable as collection or field names.
type IdentifierType struct{}

func (t *IdentifierType) Name() string { return "identifier" }

func (t *IdentifierType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected identifier, got %T", value)
	}
	if !identifierPattern.MatchString(s) {
		return fmt.Errorf("%q is not a valid identifier", s)
	}
	return nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// MapType validates string-keyed objects, such as decoded JSON objects.
type MapType struct{}

func (t *MapType) Name() string { return "map" }

func (t *MapType) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("expected map, got %T", value)
	}
	return nil
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// EnumType accepts one string out of a fixed set.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string {
	return "enum(" + strings.Join(t.values, "|") + ")"
}

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !slices.Contains(t.values, s) {
		return fmt.Errorf("%q is not one of %s", s, strings.Join(t.values, ", "))
	}
	return nil
}

// OptionalType marks a key that may be absent. Present values must still
// satisfy the wrapped type.
type OptionalType struct {
	inner Type
}

func (t *OptionalType) Name() string { return t.inner.Name() + "?" }

func (t *OptionalType) Validate(value any) error {
	return t.inner.Validate(value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Identifier creates a validator for collection and field names.
func Identifier() Type { return &IdentifierType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Map creates an object type validator.
func Map() Type { return &MapType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// OneOf creates an enum validator.
func OneOf(values ...string) Type {
	return &EnumType{values: values}
}

// Optional marks t as not required.
func Optional(t Type) Type {
	return &OptionalType{inner: t}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

func isOptional(t Type) bool {
	_, ok := t.(*OptionalType)
	return ok
}

// ParseType converts a type name back to a Type. A trailing "?" marks the
// type optional; "[t]" is a slice of t.
func ParseType(typeStr string) (Type, error) {
	if base, ok := strings.CutSuffix(typeStr, "?"); ok {
		inner, err := ParseType(base)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}
	if inner, ok := strings.CutPrefix(typeStr, "enum("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if ok && inner != "" {
			return OneOf(strings.Split(inner, "|")...), nil
		}
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "identifier":
		return Identifier(), nil
	case "bool":
		return Bool(), nil
	case "map":
		return Map(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
