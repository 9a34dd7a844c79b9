// Package schema defines parameter schemas for registered actions and
// validates candidate parameter maps against them.
package schema

import (
	"fmt"
	"sort"
)

// Type is the data type of a parameter (string, number, boolean, object, array).
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// Field describes a single declared parameter.
// Fields without a default are required unless Required is explicitly false.
type Field struct {
	// Type specifies the data type (string, number, boolean, object, array)
	Type Type `yaml:"type" json:"type"`

	// Required marks the parameter as mandatory when it has no default
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Default provides a fallback value if the parameter is not supplied
	Default any `yaml:"default,omitempty" json:"default,omitempty"`

	// Description explains what this parameter is for
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Properties holds the nested schema for object-typed parameters
	Properties Schema `yaml:"properties,omitempty" json:"properties,omitempty"`

	// AdditionalProperties permits undeclared keys inside an object value
	AdditionalProperties bool `yaml:"additional_properties,omitempty" json:"additional_properties,omitempty"`
}

// Schema maps parameter names to their declarations.
type Schema map[string]Field

// Validate checks that every field declaration is well formed.
func (s Schema) Validate() error {
	for name, f := range s {
		if !f.Type.Valid() {
			return fmt.Errorf("parameter %s: invalid type %q (must be string, number, boolean, object, or array)", name, f.Type)
		}
		if len(f.Properties) > 0 && f.Type != TypeObject {
			return fmt.Errorf("parameter %s: properties are only valid for object type", name)
		}
		if err := f.Properties.Validate(); err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
	}
	return nil
}

// Merge overlays other on top of s and returns the result. Keys declared
// in other win; neither input is modified. Used to combine a runner
// type's schema fragment with action-level declarations.
func (s Schema) Merge(other Schema) Schema {
	merged := make(Schema, len(s)+len(other))
	for name, f := range s {
		merged[name] = f
	}
	for name, f := range other {
		merged[name] = f
	}
	return merged
}

// Clone returns a deep copy of the schema, including nested object
// properties. Default values are copied by reference.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	c := make(Schema, len(s))
	for name, f := range s {
		f.Properties = f.Properties.Clone()
		c[name] = f
	}
	return c
}

// Names returns the declared parameter names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
