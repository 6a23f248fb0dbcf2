package archive

import (
	"encoding/json"
	"time"

	"github.com/chronicle/backend/internal/domain/shared"
)

// PrimaryKeyField is the reserved field name every RecordSource must resolve
// to the record's primary key.
const PrimaryKeyField = "pk"

// Record is an opaque, typed entity owned by its RecordSource. The engine
// only ever reads records; it never mutates them.
type Record interface {
	// PrimaryKey returns the record's unique identifier within its source.
	PrimaryKey() string
	// Field returns the named field value and whether the record has it.
	Field(name string) (any, bool)
}

// FieldRecord is a Record backed by a plain field map. Sources that do not
// have their own record representation can use it directly.
type FieldRecord struct {
	pk     string
	fields map[string]any
}

// NewRecord creates a FieldRecord with the given primary key and fields
func NewRecord(pk string, fields map[string]any) *FieldRecord {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &FieldRecord{pk: pk, fields: copied}
}

// PrimaryKey implements Record
func (r *FieldRecord) PrimaryKey() string {
	return r.pk
}

// Field implements Record
func (r *FieldRecord) Field(name string) (any, bool) {
	if name == PrimaryKeyField {
		return r.pk, true
	}
	v, ok := r.fields[name]
	return v, ok
}

// MarshalJSON emits the primary key alongside the fields
func (r *FieldRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.fields)+1)
	for k, v := range r.fields {
		out[k] = v
	}
	out[PrimaryKeyField] = r.pk
	return json.Marshal(out)
}

// DateOf extracts a time.Time value from the record's date field
func DateOf(r Record, field string) (time.Time, error) {
	v, ok := r.Field(field)
	if !ok {
		return time.Time{}, shared.NewFieldError(field)
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, shared.NewFieldError(field)
	}
	return t, nil
}
