package aetherfy

import (
	"fmt"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/filter"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/search"
)

// PointFromMap builds a Point from a plain map with "id", "vector" and an
// optional "payload" object. Vector elements may be of any numeric type.
func PointFromMap(m map[string]any) (Point, error) {
	p, err := point.FromMap(m)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return Point{ID: p.ID().Value(), Vector: p.Vector(), Payload: p.Payload()}, nil
}

func toInternalPoints(points []Point) ([]point.Point, error) {
	out := make([]point.Point, len(points))
	for i, p := range points {
		id, err := point.ParseID(p.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %w", domain.ErrValidation, i, err)
		}
		out[i], err = point.New(id, p.Vector, p.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %w", domain.ErrValidation, i, err)
		}
	}
	return out, nil
}

func toInternalIDs(ids []any) ([]point.ID, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: point ids cannot be empty", domain.ErrValidation)
	}
	out := make([]point.ID, len(ids))
	for i, v := range ids {
		id, err := point.ParseID(v)
		if err != nil {
			return nil, fmt.Errorf("%w: id %d: %w", domain.ErrValidation, i, err)
		}
		out[i] = id
	}
	return out, nil
}

func toInternalFilter(f *Filter) (filter.Expression, error) {
	if f == nil {
		return filter.Expression{}, nil
	}
	must, err := toConditions(f.Must)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter must: %w", err)
	}
	should, err := toConditions(f.Should)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter should: %w", err)
	}
	mustNot, err := toConditions(f.MustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter must_not: %w", err)
	}
	expr, err := filter.NewExpression(must, should, mustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("filter expression: %w", err)
	}
	return expr, nil
}

func toConditions(conds []Condition) ([]filter.Condition, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	out := make([]filter.Condition, len(conds))
	for i, c := range conds {
		var err error
		if c.Range != nil {
			r, rerr := filter.NewRangeFilter(c.Range.GT, c.Range.GTE, c.Range.LT, c.Range.LTE)
			if rerr != nil {
				return nil, fmt.Errorf("filter %q: %w", c.Key, rerr)
			}
			out[i], err = filter.NewRange(c.Key, r)
		} else {
			out[i], err = filter.NewMatch(c.Key, c.Match)
		}
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", c.Key, err)
		}
	}
	return out, nil
}

func toInternalSearch(req SearchRequest) (search.Request, error) {
	expr, err := toInternalFilter(req.Filter)
	if err != nil {
		return search.Request{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	r, err := search.New(req.Vector, search.Params{
		Limit:          req.Limit,
		Offset:         req.Offset,
		Filter:         expr,
		WithPayload:    req.WithPayload,
		WithVector:     req.WithVector,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		return search.Request{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return r, nil
}

func fromRecords(records []point.Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{ID: r.ID.Value(), Vector: r.Vector, Payload: r.Payload}
	}
	return out
}

func fromHits(hits []search.Hit) []SearchResult {
	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = SearchResult{ID: h.ID.Value(), Score: h.Score, Payload: h.Payload, Vector: h.Vector}
	}
	return out
}
