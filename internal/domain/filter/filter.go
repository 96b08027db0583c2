// Package filter models payload filters in the must/should/must_not form the service accepts.
package filter

import "fmt"

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured filter with must/should/must_not boolean semantics.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// Wire returns the JSON form: {"must":[...], "should":[...], "must_not":[...]}.
// Empty groups are omitted; an empty expression yields nil.
func (e Expression) Wire() map[string]any {
	if e.IsEmpty() {
		return nil
	}
	out := make(map[string]any, 3)
	add := func(name string, conds []Condition) {
		if len(conds) == 0 {
			return
		}
		list := make([]map[string]any, len(conds))
		for i, c := range conds {
			list[i] = c.Wire()
		}
		out[name] = list
	}
	add("must", e.must)
	add("should", e.should)
	add("must_not", e.mustNot)
	return out
}

// Condition is a single filter clause: either a value match or a numeric range.
type Condition struct {
	key       string
	match     any
	rangeExpr *Range
}

// NewMatch creates an exact match condition. The value must be a string, bool or integer.
func NewMatch(key string, value any) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return Condition{}, fmt.Errorf("match value is required for key %q", key)
		}
	case bool, int, int32, int64:
	case nil:
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	default:
		return Condition{}, fmt.Errorf("match value for key %q must be a string, bool or integer, got %T", key, value)
	}
	return Condition{key: key, match: value}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() any { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != nil }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Wire returns {"key":k,"match":{"value":v}} or {"key":k,"range":{...}}.
func (c Condition) Wire() map[string]any {
	out := map[string]any{"key": c.key}
	if c.IsRange() {
		out["range"] = c.rangeExpr.Wire()
	} else {
		out["match"] = map[string]any{"value": c.match}
	}
	return out
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Wire returns the set boundaries keyed gt/gte/lt/lte.
func (r Range) Wire() map[string]float64 {
	out := make(map[string]float64, 2)
	for name, b := range map[string]*float64{"gt": r.gt, "gte": r.gte, "lt": r.lt, "lte": r.lte} {
		if b != nil {
			out[name] = *b
		}
	}
	return out
}
