package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
)

// Validation error codes.
const (
	CodeRequiredFieldMissing     = "REQUIRED_FIELD_MISSING"
	CodeTypeMismatch             = "TYPE_MISMATCH"
	CodeArrayElementTypeMismatch = "ARRAY_ELEMENT_TYPE_MISMATCH"
)

// ValidationError is a single field-level violation.
type ValidationError struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected Type   `json:"expected,omitempty"`
	Actual   Type   `json:"actual,omitempty"`
}

func (e ValidationError) Error() string { return e.Message }

// DetectType returns the runtime type of a payload value.
// Integer kinds and json.Number without fraction or exponent are integers;
// float kinds and other json.Number values are floats.
func DetectType(v any) Type {
	switch n := v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case string:
		return String
	case json.Number:
		if strings.ContainsAny(n.String(), ".eE") {
			return Float
		}
		return Integer
	case map[string]any:
		return Object
	case []any:
		return Array
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.String:
		return String
	case reflect.Bool:
		return Boolean
	case reflect.Slice, reflect.Array:
		return Array
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return Object
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return DetectType(rv.Elem().Interface())
	}
	return Unknown
}

// Validate checks a payload against a schema. A nil payload is treated as
// empty. Fields are visited in name order, so the result is deterministic.
func Validate(payload map[string]any, s Schema, prefix string) []ValidationError {
	var errs []ValidationError

	for _, name := range sortedNames(s.Fields) {
		def := s.Fields[name]
		path := joinPath(prefix, name)
		value, ok := payload[name]
		missing := !ok || isNil(value)

		if missing {
			if def.Required {
				errs = append(errs, ValidationError{
					Field:   path,
					Code:    CodeRequiredFieldMissing,
					Message: fmt.Sprintf("Required field '%s' is missing", path),
				})
			}
			continue
		}

		actual := DetectType(value)
		if actual != def.Type {
			errs = append(errs, ValidationError{
				Field:    path,
				Code:     CodeTypeMismatch,
				Message:  fmt.Sprintf("Field '%s' expected %s, got %s", path, def.Type, actual),
				Expected: def.Type,
				Actual:   actual,
			})
			continue
		}

		switch def.Type {
		case Array:
			if def.ElementType != "" {
				errs = append(errs, validateElements(value, def.ElementType, path)...)
			}
		case Object:
			if len(def.Fields) > 0 {
				if nested, ok := asMap(value); ok {
					errs = append(errs, Validate(nested, Schema{Fields: def.Fields}, path)...)
				}
			}
		}
	}

	return errs
}

func validateElements(value any, want Type, path string) []ValidationError {
	var errs []ValidationError
	rv := reflect.ValueOf(value)
	for i := 0; i < rv.Len(); i++ {
		got := DetectType(rv.Index(i).Interface())
		if got == want {
			continue
		}
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		errs = append(errs, ValidationError{
			Field:    elemPath,
			Code:     CodeArrayElementTypeMismatch,
			Message:  fmt.Sprintf("Array element at '%s' expected %s, got %s", elemPath, want, got),
			Expected: want,
			Actual:   got,
		})
	}
	return errs
}

// RecordErrors lists the violations of one point in a batch.
type RecordErrors struct {
	Index  int               `json:"index"`
	ID     point.ID          `json:"id"`
	Errors []ValidationError `json:"errors"`
}

// ValidatePoints validates every point's payload. Only points with at least
// one violation are returned, each with all of its violations.
func ValidatePoints(points []point.Point, s Schema) []RecordErrors {
	var out []RecordErrors
	for i := range points {
		errs := Validate(points[i].Payload(), s, "")
		if len(errs) == 0 {
			continue
		}
		out = append(out, RecordErrors{Index: i, ID: points[i].ID(), Errors: errs})
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}
