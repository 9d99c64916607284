package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "float").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected float, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// Whole floats come out of JSON decoding.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected int, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type mapType struct{}

func (mapType) Name() string { return "map" }

func (mapType) Validate(value any) error {
	if value == nil {
		return nil
	}
	if reflect.ValueOf(value).Kind() != reflect.Map {
		return fmt.Errorf("expected map, got %T", value)
	}
	return nil
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type oneOfType struct {
	values []string
}

func (t oneOfType) Name() string { return "one of " + strings.Join(t.values, "|") }

func (t oneOfType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if strings.EqualFold(v, s) {
			return nil
		}
	}
	return fmt.Errorf("expected %s", t.Name())
}

type optionalType struct {
	Type
}

// String creates a string type validator.
func String() Type { return stringType{} }

// Float creates a numeric type validator.
func Float() Type { return floatType{} }

// Int creates an integer type validator.
func Int() Type { return intType{} }

// Bool creates a boolean type validator.
func Bool() Type { return boolType{} }

// Map creates a validator for nested objects.
func Map() Type { return mapType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// OneOf accepts one of the given strings, case-insensitively.
func OneOf(values ...string) Type { return oneOfType{values: values} }

// Optional marks a field that may be missing.
func Optional(t Type) Type { return optionalType{Type: t} }
