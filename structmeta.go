package aetherfy

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "aetherfy"

// structMeta holds parsed struct tag metadata, cached per TypedCollection.
type structMeta struct {
	typ       reflect.Type
	idIdx     int
	vectorIdx int
	fields    []payloadField
}

type payloadField struct {
	structIdx int
	name      string
	required  bool
	def       FieldDefinition
}

// parseStruct reflects on T and extracts aetherfy struct tag metadata.
//
//	type Product struct {
//	    SKU    string    `aetherfy:",id"`
//	    Embed  []float32 `aetherfy:",vector"`
//	    Name   string    `aetherfy:"name,required"`
//	    Price  float64   `aetherfy:"price"`
//	}
func parseStruct[T any]() (*structMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("aetherfy: type parameter must be a struct")
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("aetherfy: type %s is not a struct", t)
	}

	meta := &structMeta{typ: t, idIdx: -1, vectorIdx: -1}
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		if err := meta.applyTag(i, f, tag); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("aetherfy: no field with `aetherfy:\",id\"` tag in %s", t)
	}
	if meta.vectorIdx == -1 {
		return nil, fmt.Errorf("aetherfy: no field with `aetherfy:\",vector\"` tag in %s", t)
	}
	return meta, nil
}

func (m *structMeta) applyTag(idx int, f reflect.StructField, tag string) error {
	name, modifier, _ := strings.Cut(tag, ",")

	switch modifier {
	case "id":
		if m.idIdx != -1 {
			return fmt.Errorf("aetherfy: duplicate id tag on field %s", f.Name)
		}
		switch f.Type.Kind() {
		case reflect.String, reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint32:
		default:
			return fmt.Errorf("aetherfy: id field %s must be a string or integer, got %s", f.Name, f.Type)
		}
		m.idIdx = idx
	case "vector":
		if m.vectorIdx != -1 {
			return fmt.Errorf("aetherfy: duplicate vector tag on field %s", f.Name)
		}
		if f.Type != reflect.TypeOf([]float32(nil)) {
			return fmt.Errorf("aetherfy: vector field %s must be []float32, got %s", f.Name, f.Type)
		}
		m.vectorIdx = idx
	case "", "required":
		if name == "" {
			name = f.Name
		}
		def := fieldDefinition(f.Type)
		def.Required = modifier == "required"
		m.fields = append(m.fields, payloadField{structIdx: idx, name: name, required: def.Required, def: def})
	default:
		return fmt.Errorf("aetherfy: unknown modifier %q on field %s", modifier, f.Name)
	}
	return nil
}

// fieldDefinition maps a Go type to the payload type it serializes to.
func fieldDefinition(t reflect.Type) FieldDefinition {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return FieldDefinition{Type: FieldBoolean}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldDefinition{Type: FieldInteger}
	case reflect.Float32, reflect.Float64:
		return FieldDefinition{Type: FieldFloat}
	case reflect.String:
		return FieldDefinition{Type: FieldString}
	case reflect.Slice, reflect.Array:
		elem := fieldDefinition(t.Elem())
		return FieldDefinition{Type: FieldArray, ElementType: elem.Type}
	default:
		return FieldDefinition{Type: FieldObject}
	}
}

// schema returns the payload schema implied by the tagged fields.
func (m *structMeta) schema() Schema {
	fields := make(map[string]FieldDefinition, len(m.fields))
	for _, f := range m.fields {
		fields[f.name] = f.def
	}
	return Schema{Fields: fields}
}

// toPoint converts a typed struct to a Point. Nil pointer fields are omitted.
func (m *structMeta) toPoint(item any) Point {
	v := reflect.ValueOf(item)

	payload := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		fv := v.Field(f.structIdx)
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		payload[f.name] = payloadValue(reflect.Indirect(fv))
	}

	vector, _ := v.Field(m.vectorIdx).Interface().([]float32)
	return Point{ID: v.Field(m.idIdx).Interface(), Vector: vector, Payload: payload}
}

// payloadValue returns v as a payload value. Structs become maps so that
// they validate as objects.
func payloadValue(v reflect.Value) any {
	if v.Kind() != reflect.Struct {
		return v.Interface()
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return v.Interface()
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return v.Interface()
	}
	return m
}

// fromRecord converts a Record back to a typed struct.
// Payload values are decoded through JSON, so any field type that
// round-trips through encoding/json is supported.
func (m *structMeta) fromRecord(r Record) (any, error) {
	v := reflect.New(m.typ).Elem()

	if err := assign(v.Field(m.idIdx), r.ID); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if r.Vector != nil {
		v.Field(m.vectorIdx).Set(reflect.ValueOf(r.Vector))
	}
	for _, f := range m.fields {
		val, ok := r.Payload[f.name]
		if !ok || val == nil {
			continue
		}
		if err := assign(v.Field(f.structIdx), val); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.name, err)
		}
	}
	return v.Interface(), nil
}

func assign(field reflect.Value, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	ptr := reflect.New(field.Type())
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return err
	}
	field.Set(ptr.Elem())
	return nil
}
