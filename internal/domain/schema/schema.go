package schema

import (
	"fmt"
	"sort"
)

// Type is the declared type of a payload field.
type Type string

// Field type constants.
const (
	Null    Type = "null"
	Boolean Type = "boolean"
	Integer Type = "integer"
	Float   Type = "float"
	String  Type = "string"
	Array   Type = "array"
	Object  Type = "object"
	// Unknown is only ever detected, never declared.
	Unknown Type = "unknown"
)

// IsValid checks if the type can be declared in a schema.
func (t Type) IsValid() bool {
	switch t {
	case Null, Boolean, Integer, Float, String, Array, Object:
		return true
	default:
		return false
	}
}

// Enforcement controls how schema violations are handled on writes.
type Enforcement string

// Enforcement mode constants.
const (
	Off    Enforcement = "off"
	Warn   Enforcement = "warn"
	Strict Enforcement = "strict"
)

// IsValid checks if the enforcement mode is supported.
func (e Enforcement) IsValid() bool {
	return e == Off || e == Warn || e == Strict
}

// ParseEnforcement returns Off for an empty mode.
func ParseEnforcement(s string) (Enforcement, error) {
	if s == "" {
		return Off, nil
	}
	e := Enforcement(s)
	if !e.IsValid() {
		return "", fmt.Errorf("invalid enforcement mode %q: must be off, warn or strict", s)
	}
	return e, nil
}

// FieldDefinition describes a single payload field.
// ElementType is only meaningful for arrays, Fields only for objects.
type FieldDefinition struct {
	Type        Type                       `json:"type"`
	Required    bool                       `json:"required"`
	ElementType Type                       `json:"element_type,omitempty"`
	Fields      map[string]FieldDefinition `json:"fields,omitempty"`
}

// Schema is the payload contract of a collection.
type Schema struct {
	Fields map[string]FieldDefinition `json:"fields"`
}

// Clone returns a deep copy of the schema, nested fields included.
func (s Schema) Clone() Schema {
	return Schema{Fields: cloneFields(s.Fields)}
}

func cloneFields(fields map[string]FieldDefinition) map[string]FieldDefinition {
	if fields == nil {
		return nil
	}
	out := make(map[string]FieldDefinition, len(fields))
	for name, def := range fields {
		def.Fields = cloneFields(def.Fields)
		out[name] = def
	}
	return out
}

// Check verifies the schema definition itself: known types, element types
// only under arrays, nested fields only under objects.
func (s Schema) Check() error {
	return checkFields(s.Fields, "")
}

func checkFields(fields map[string]FieldDefinition, prefix string) error {
	for _, name := range sortedNames(fields) {
		def := fields[name]
		path := joinPath(prefix, name)
		if name == "" {
			return fmt.Errorf("field name is required (under %q)", prefix)
		}
		if !def.Type.IsValid() {
			return fmt.Errorf("field %q: invalid type %q", path, def.Type)
		}
		if def.ElementType != "" {
			if def.Type != Array {
				return fmt.Errorf("field %q: element_type is only allowed on arrays", path)
			}
			if !def.ElementType.IsValid() {
				return fmt.Errorf("field %q: invalid element_type %q", path, def.ElementType)
			}
		}
		if len(def.Fields) > 0 {
			if def.Type != Object {
				return fmt.Errorf("field %q: nested fields are only allowed on objects", path)
			}
			if err := checkFields(def.Fields, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Definition is a payload schema as stored on the server.
type Definition struct {
	Schema      Schema
	ETag        string
	Enforcement Enforcement
}

// AnalysisResult is the server's analysis of existing payloads in a collection.
type AnalysisResult struct {
	Collection       string         `json:"collection"`
	SampleSize       int            `json:"sample_size"`
	TotalPoints      int64          `json:"total_points"`
	Fields           map[string]any `json:"fields"`
	SuggestedSchema  Schema         `json:"suggested_schema"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
}

func sortedNames(fields map[string]FieldDefinition) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
