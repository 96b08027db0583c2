package point

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID identifies a point: either a non-empty string or an integer.
type ID struct {
	str   string
	num   int64
	isNum bool
}

// StringID creates a string identifier.
func StringID(s string) ID { return ID{str: s} }

// IntID creates an integer identifier.
func IntID(n int64) ID { return ID{num: n, isNum: true} }

// ParseID converts a loosely typed identifier (string or any integer kind).
func ParseID(v any) (ID, error) {
	switch id := v.(type) {
	case ID:
		return id, nil
	case string:
		return StringID(id), nil
	case int:
		return IntID(int64(id)), nil
	case int8:
		return IntID(int64(id)), nil
	case int16:
		return IntID(int64(id)), nil
	case int32:
		return IntID(int64(id)), nil
	case int64:
		return IntID(id), nil
	case uint:
		return uintID(uint64(id))
	case uint8:
		return IntID(int64(id)), nil
	case uint16:
		return IntID(int64(id)), nil
	case uint32:
		return IntID(int64(id)), nil
	case uint64:
		return uintID(id)
	case json.Number:
		n, err := id.Int64()
		if err != nil {
			return ID{}, fmt.Errorf("point ID %q is not an integer", id)
		}
		return IntID(n), nil
	case float64:
		if id != math.Trunc(id) {
			return ID{}, fmt.Errorf("point ID %v is not an integer", id)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
		if id < math.MinInt64 || id >= math.MaxInt64 {
			return ID{}, fmt.Errorf("point ID %v is out of the int64 range", id)
		}
		return IntID(int64(id)), nil
	default:
		return ID{}, fmt.Errorf("point ID must be a string or integer, got %T", v)
	}
}

// IsInt reports whether the identifier is numeric.
func (id ID) IsInt() bool { return id.isNum }

// Int returns the numeric identifier (zero for string IDs).
func (id ID) Int() int64 { return id.num }

// IsZero reports whether the identifier is an empty or blank string ID.
func (id ID) IsZero() bool { return !id.isNum && strings.TrimSpace(id.str) == "" }

func uintID(n uint64) (ID, error) {
	if n > math.MaxInt64 {
		return ID{}, fmt.Errorf("point ID %d is out of the int64 range", n)
	}
	return IntID(int64(n)), nil
}

// Value returns the identifier as string or int64.
func (id ID) Value() any {
	if id.isNum {
		return id.num
	}
	return id.str
}

func (id ID) String() string {
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// MarshalJSON encodes the identifier as a JSON string or number.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isNum {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

// UnmarshalJSON accepts a JSON string or integer.
func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("point ID must be a string or integer: %w", err)
	}
	*id = IntID(n)
	return nil
}

// Point is a vector record submitted in a write (immutable value object).
type Point struct {
	id      ID
	vector  []float32
	payload map[string]any
}

// New validates and creates a Point.
// ID: non-empty string or integer. Vector: non-empty, finite values.
// The vector and the top level of the payload are copied.
func New(id ID, vector []float32, payload map[string]any) (Point, error) {
	if id.IsZero() {
		return Point{}, fmt.Errorf("point ID is required")
	}
	if len(vector) == 0 {
		return Point{}, fmt.Errorf("point %s: vector is required", id)
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Point{}, fmt.Errorf("point %s: vector[%d] is not a finite number", id, i)
		}
	}

	return Point{
		id:      id,
		vector:  append([]float32(nil), vector...),
		payload: clonePayload(payload),
	}, nil
}

// FromMap normalizes a plain map with "id", "vector" and optional "payload" keys.
// Vector elements may be any numeric kind.
func FromMap(m map[string]any) (Point, error) {
	rawID, ok := m["id"]
	if !ok {
		return Point{}, fmt.Errorf("point ID is required")
	}
	id, err := ParseID(rawID)
	if err != nil {
		return Point{}, err
	}

	vector, err := toVector(m["vector"])
	if err != nil {
		return Point{}, fmt.Errorf("point %s: %w", id, err)
	}

	var payload map[string]any
	switch p := m["payload"].(type) {
	case nil:
	case map[string]any:
		payload = p
	default:
		return Point{}, fmt.Errorf("point %s: payload must be an object, got %T", id, p)
	}

	return New(id, vector, payload)
}

// ID returns the point identifier.
func (p *Point) ID() ID { return p.id }

// Vector returns the vector. Callers must not modify it.
func (p *Point) Vector() []float32 { return p.vector }

// Payload returns the payload (nil when none was given).
func (p *Point) Payload() map[string]any { return p.payload }

// Dimension returns the vector length.
func (p *Point) Dimension() int { return len(p.vector) }

func toVector(v any) ([]float32, error) {
	switch vec := v.(type) {
	case nil:
		return nil, fmt.Errorf("vector is required")
	case []float32:
		return vec, nil
	case []float64:
		out := make([]float32, len(vec))
		for i, f := range vec {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(vec))
		for i, e := range vec {
			f, ok := toFloat(e)
			if !ok {
				return nil, fmt.Errorf("vector[%d] must be a number, got %T", i, e)
			}
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("vector must be a list of numbers, got %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func clonePayload(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Record is a stored point as returned by retrieval.
type Record struct {
	ID      ID
	Vector  []float32
	Payload map[string]any
}
