package schema

import "fmt"

// Reason classifies why a parameter failed validation.
type Reason string

const (
	MissingRequired    Reason = "missing_required"
	UnexpectedProperty Reason = "unexpected_property"
	TypeMismatch       Reason = "type_mismatch"
)

// FieldError reports a single offending parameter. Key is the full path
// for nested objects (e.g. "c.c1").
type FieldError struct {
	Key    string
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("parameter %s: %s", e.Key, e.Detail)
}

// Validate checks params against the schema and returns a fully defaulted
// copy on success. Declared parameters absent from the input take their
// default; required parameters with no default fail with MissingRequired.
// Undeclared keys fail with UnexpectedProperty unless the schema level
// allows additional properties. Present values must match their declared
// type, recursively for nested objects. Pure function; params is not
// modified.
func Validate(s Schema, params map[string]any) (map[string]any, error) {
	return validate(s, params, "", false)
}

func validate(s Schema, params map[string]any, prefix string, allowExtra bool) (map[string]any, error) {
	merged := make(map[string]any, len(s))

	for key, value := range params {
		field, declared := s[key]
		if !declared {
			if allowExtra {
				merged[key] = value
				continue
			}
			return nil, &FieldError{
				Key:    path(prefix, key),
				Reason: UnexpectedProperty,
				Detail: "not declared in the action schema",
			}
		}
		checked, err := checkType(field, value, path(prefix, key))
		if err != nil {
			return nil, err
		}
		merged[key] = checked
	}

	for _, name := range s.Names() {
		if _, present := params[name]; present {
			continue
		}
		field := s[name]
		if field.Default != nil {
			merged[name] = field.Default
			continue
		}
		if field.Required {
			return nil, &FieldError{
				Key:    path(prefix, name),
				Reason: MissingRequired,
				Detail: "required parameter is missing and has no default",
			}
		}
	}

	return merged, nil
}

// checkType verifies the runtime shape of value against the declared type.
// Object values are validated recursively against the nested schema.
func checkType(field Field, value any, key string) (any, error) {
	switch field.Type {
	case TypeString:
		if _, ok := value.(string); !ok {
			return nil, mismatch(key, field.Type, value)
		}
	case TypeNumber:
		// encoding/json decodes every number as float64; native callers
		// may hand us ints.
		switch value.(type) {
		case float64, float32, int, int32, int64:
		default:
			return nil, mismatch(key, field.Type, value)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return nil, mismatch(key, field.Type, value)
		}
	case TypeArray:
		if _, ok := value.([]any); !ok {
			return nil, mismatch(key, field.Type, value)
		}
	case TypeObject:
		nested, ok := value.(map[string]any)
		if !ok {
			return nil, mismatch(key, field.Type, value)
		}
		return validate(field.Properties, nested, key, field.AdditionalProperties)
	default:
		return nil, mismatch(key, field.Type, value)
	}
	return value, nil
}

func mismatch(key string, want Type, got any) *FieldError {
	return &FieldError{
		Key:    key,
		Reason: TypeMismatch,
		Detail: fmt.Sprintf("expected %s, got %T", want, got),
	}
}

func path(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
