package archive

import (
	"context"
	"sort"
	"time"

	"github.com/chronicle/backend/internal/domain/shared"
)

// SliceSource is an in-memory RecordSource over a fixed record slice. It is
// the reference implementation of the RecordSource contract and the fixture
// source used throughout the engine's tests.
type SliceSource struct {
	records    []Record
	fields     map[string]bool
	predicates []Predicate
	orderField string
	orderDesc  bool
	dependents func(Record) []Record
}

// SliceSourceOption configures a SliceSource
type SliceSourceOption func(*SliceSource)

// WithDependents sets the dependent-record resolver used by Dependents
func WithDependents(fn func(Record) []Record) SliceSourceOption {
	return func(s *SliceSource) {
		s.dependents = fn
	}
}

// NewSliceSource creates a SliceSource exposing the given field names
func NewSliceSource(fields []string, records []Record, opts ...SliceSourceOption) *SliceSource {
	allowed := make(map[string]bool, len(fields)+1)
	allowed[PrimaryKeyField] = true
	for _, f := range fields {
		allowed[f] = true
	}
	s := &SliceSource{
		records: records,
		fields:  allowed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Filter implements RecordSource
func (s *SliceSource) Filter(p Predicate) (RecordSource, error) {
	if !s.fields[p.Field] {
		return nil, shared.NewFieldError(p.Field)
	}
	next := *s
	next.predicates = append(append([]Predicate{}, s.predicates...), p)
	return &next, nil
}

// OrderBy implements RecordSource
func (s *SliceSource) OrderBy(field string, descending bool) (RecordSource, error) {
	if !s.fields[field] {
		return nil, shared.NewFieldError(field)
	}
	next := *s
	next.orderField = field
	next.orderDesc = descending
	return &next, nil
}

// Count implements RecordSource
func (s *SliceSource) Count(ctx context.Context) (int, error) {
	return len(s.materialize()), nil
}

// Slice implements RecordSource
func (s *SliceSource) Slice(ctx context.Context, offset, limit int) ([]Record, error) {
	if offset < 0 || limit < 0 {
		return nil, shared.ErrInvalidInput
	}
	matched := s.materialize()
	if offset >= len(matched) {
		return []Record{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]Record, end-offset)
	copy(out, matched[offset:end])
	return out, nil
}

// Dependents implements RecordSource
func (s *SliceSource) Dependents(ctx context.Context, rec Record) ([]Record, error) {
	if s.dependents == nil {
		return []Record{}, nil
	}
	return s.dependents(rec), nil
}

func (s *SliceSource) materialize() []Record {
	matched := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if s.matches(rec) {
			matched = append(matched, rec)
		}
	}
	if s.orderField != "" {
		field, desc := s.orderField, s.orderDesc
		sort.SliceStable(matched, func(i, j int) bool {
			vi, _ := matched[i].Field(field)
			vj, _ := matched[j].Field(field)
			if desc {
				return compareValues(vj, vi) < 0
			}
			return compareValues(vi, vj) < 0
		})
	}
	return matched
}

func (s *SliceSource) matches(rec Record) bool {
	for _, p := range s.predicates {
		v, ok := rec.Field(p.Field)
		if !ok {
			return false
		}
		cmp := compareValues(v, p.Value)
		switch p.Op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpLt:
			if cmp >= 0 {
				return false
			}
		case OpLte:
			if cmp > 0 {
				return false
			}
		case OpGt:
			if cmp <= 0 {
				return false
			}
		case OpGte:
			if cmp < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders two field values of the same kind. Unsupported or
// mismatched kinds compare as equal, which keeps filtering conservative.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case int:
		if bv, ok := toInt64(b); ok {
			return compareInt64(int64(av), bv)
		}
	case int64:
		if bv, ok := toInt64(b); ok {
			return compareInt64(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return 0
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
