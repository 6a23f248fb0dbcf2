package persistence

import (
	"context"

	"github.com/chronicle/backend/internal/domain/archive"
	"github.com/chronicle/backend/internal/domain/shared"
	"github.com/chronicle/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// entryColumns whitelists the fields the entry source exposes and maps them
// to their columns. Anything else is a FieldError.
var entryColumns = map[string]string{
	archive.PrimaryKeyField: "id",
	"title":                 "title",
	"slug":                  "slug",
	"author":                "author",
	"published_at":          "published_at",
	"created_at":            "created_at",
	"updated_at":            "updated_at",
}

var sqlOperators = map[archive.Operator]string{
	archive.OpEq:  "=",
	archive.OpLt:  "<",
	archive.OpLte: "<=",
	archive.OpGt:  ">",
	archive.OpGte: ">=",
}

// defaultOrder keeps row order stable when the caller never sorts. SQL gives
// no ordering guarantee otherwise, and pagination needs consecutive slices to
// cover the table exactly once. The id tiebreak disambiguates equal dates.
const defaultOrder = "published_at DESC, id"

// GormEntrySource implements archive.RecordSource over the entries table.
// Filter and OrderBy branch the underlying GORM session, so a source value
// can be narrowed repeatedly without affecting its parent.
type GormEntrySource struct {
	db      *gorm.DB
	ordered bool
}

// NewGormEntrySource creates a RecordSource over the entries table
func NewGormEntrySource(db *gorm.DB) *GormEntrySource {
	return &GormEntrySource{db: db.Model(&models.EntryModel{})}
}

// Filter implements archive.RecordSource
func (s *GormEntrySource) Filter(p archive.Predicate) (archive.RecordSource, error) {
	column, ok := entryColumns[p.Field]
	if !ok {
		return nil, shared.NewFieldError(p.Field)
	}
	op, ok := sqlOperators[p.Op]
	if !ok {
		return nil, shared.ErrInvalidInput
	}
	return &GormEntrySource{
		db:      s.db.Session(&gorm.Session{}).Where(column+" "+op+" ?", p.Value),
		ordered: s.ordered,
	}, nil
}

// OrderBy implements archive.RecordSource
func (s *GormEntrySource) OrderBy(field string, descending bool) (archive.RecordSource, error) {
	column, ok := entryColumns[field]
	if !ok {
		return nil, shared.NewFieldError(field)
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	return &GormEntrySource{
		db:      s.db.Session(&gorm.Session{}).Order(column + " " + direction),
		ordered: true,
	}, nil
}

// Count implements archive.RecordSource
func (s *GormEntrySource) Count(ctx context.Context) (int, error) {
	var total int64
	if err := s.db.Session(&gorm.Session{}).WithContext(ctx).Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// Slice implements archive.RecordSource
func (s *GormEntrySource) Slice(ctx context.Context, offset, limit int) ([]archive.Record, error) {
	if offset < 0 || limit < 0 {
		return nil, shared.ErrInvalidInput
	}
	tx := s.db.Session(&gorm.Session{}).WithContext(ctx)
	if !s.ordered {
		tx = tx.Order(defaultOrder)
	}
	var rows []models.EntryModel
	err := tx.
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]archive.Record, len(rows))
	for i := range rows {
		records[i] = rows[i].ToRecord()
	}
	return records, nil
}

// Dependents implements archive.RecordSource: the comments attached to an
// entry are removed with it, so they form the entry's delete closure.
func (s *GormEntrySource) Dependents(ctx context.Context, rec archive.Record) ([]archive.Record, error) {
	entryID, err := uuid.Parse(rec.PrimaryKey())
	if err != nil {
		return nil, shared.ErrInvalidInput
	}
	var rows []models.CommentModel
	err = s.db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("posted_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]archive.Record, len(rows))
	for i := range rows {
		records[i] = rows[i].ToRecord()
	}
	return records, nil
}
