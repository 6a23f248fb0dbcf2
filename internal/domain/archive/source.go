package archive

import "context"

// Operator is a closed set of comparison operators a predicate may use
type Operator string

const (
	OpEq  Operator = "eq"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
)

// Predicate is a single field comparison applied by RecordSource.Filter
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Eq builds an equality predicate
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

// Lt builds a strictly-less-than predicate
func Lt(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLt, Value: value}
}

// Lte builds a less-than-or-equal predicate
func Lte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLte, Value: value}
}

// Gt builds a strictly-greater-than predicate
func Gt(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGt, Value: value}
}

// Gte builds a greater-than-or-equal predicate
func Gte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGte, Value: value}
}

// RecordSource is an ordered, filterable, sliceable view over records. It is
// the boundary to the backing store: implementations own query execution and
// consistency; the engine only composes filters and reads results.
//
// Filter and OrderBy are non-mutating: they return a narrowed view and leave
// the receiver untouched, so applying the same criteria twice yields an
// equivalent sequence.
type RecordSource interface {
	// Filter returns a view restricted to records matching the predicate.
	// Referencing an unknown field fails with a FieldError.
	Filter(p Predicate) (RecordSource, error)

	// OrderBy returns a view ordered by the given field. Referencing an
	// unknown field fails with a FieldError.
	OrderBy(field string, descending bool) (RecordSource, error)

	// Count returns the number of records in the view.
	Count(ctx context.Context) (int, error)

	// Slice returns up to limit records starting at offset, in the view's
	// order. Offset and limit must be non-negative.
	Slice(ctx context.Context, offset, limit int) ([]Record, error)

	// Dependents returns the records that would be removed together with
	// rec, so a delete can be confirmed against its full closure. Cascade
	// resolution is owned by the backing store.
	Dependents(ctx context.Context, rec Record) ([]Record, error)
}
