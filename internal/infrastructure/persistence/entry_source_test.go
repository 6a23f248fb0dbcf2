package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chronicle/backend/internal/domain/archive"
	"github.com/chronicle/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockSource(t *testing.T) (*GormEntrySource, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to open gorm connection")

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return NewGormEntrySource(db), mock
}

func entryRows(ids ...uuid.UUID) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "title", "slug", "author", "body", "published_at", "created_at", "updated_at",
	})
	now := time.Date(2006, time.May, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range ids {
		rows.AddRow(id, "Title", "slug", "author", "body", now.AddDate(0, 0, i), now, now)
	}
	return rows
}

func TestGormEntrySourceCount(t *testing.T) {
	src, mock := newMockSource(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := src.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}

func TestGormEntrySourceSlice(t *testing.T) {
	src, mock := newMockSource(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "entries" .*LIMIT .*OFFSET`).
		WillReturnRows(entryRows(id))

	records, err := src.Slice(context.Background(), 10, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id.String(), records[0].PrimaryKey())
	title, ok := records[0].Field("title")
	require.True(t, ok)
	assert.Equal(t, "Title", title)
}

func TestGormEntrySourceDefaultOrder(t *testing.T) {
	t.Run("unsorted reads get a stable default order", func(t *testing.T) {
		src, mock := newMockSource(t)

		mock.ExpectQuery(`SELECT \* FROM "entries" ORDER BY published_at DESC, id LIMIT`).
			WillReturnRows(entryRows(uuid.New()))

		_, err := src.Slice(context.Background(), 0, 10)
		require.NoError(t, err)
	})

	t.Run("an explicit order replaces the default", func(t *testing.T) {
		src, mock := newMockSource(t)

		ordered, err := src.OrderBy("title", false)
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT \* FROM "entries" ORDER BY title ASC LIMIT`).
			WillReturnRows(entryRows(uuid.New()))

		_, err = ordered.Slice(context.Background(), 0, 10)
		require.NoError(t, err)
	})

	t.Run("filtering preserves an earlier explicit order", func(t *testing.T) {
		src, mock := newMockSource(t)

		ordered, err := src.OrderBy("published_at", true)
		require.NoError(t, err)
		filtered, err := ordered.Filter(archive.Eq("author", "alice"))
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT \* FROM "entries" WHERE author = \$1 ORDER BY published_at DESC LIMIT`).
			WithArgs("alice").
			WillReturnRows(entryRows(uuid.New()))

		_, err = filtered.Slice(context.Background(), 0, 10)
		require.NoError(t, err)
	})
}

func TestGormEntrySourceFilterAndOrder(t *testing.T) {
	src, mock := newMockSource(t)
	cutoff := time.Date(2006, time.May, 15, 10, 0, 0, 0, time.UTC)

	filtered, err := src.Filter(archive.Lte("published_at", cutoff))
	require.NoError(t, err)
	ordered, err := filtered.OrderBy("published_at", true)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "entries" WHERE published_at <= \$1 ORDER BY published_at DESC`).
		WithArgs(cutoff).
		WillReturnRows(entryRows(uuid.New(), uuid.New()))

	records, err := ordered.Slice(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestGormEntrySourceFilterDoesNotMutateParent(t *testing.T) {
	src, mock := newMockSource(t)

	_, err := src.Filter(archive.Eq("slug", "hello"))
	require.NoError(t, err)

	// The parent keeps counting the whole table.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "entries"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := src.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestGormEntrySourceFieldValidation(t *testing.T) {
	src, _ := newMockSource(t)

	t.Run("unknown filter field", func(t *testing.T) {
		_, err := src.Filter(archive.Eq("body_text", "x"))
		var fieldErr *shared.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "body_text", fieldErr.Field)
	})

	t.Run("unknown order field", func(t *testing.T) {
		_, err := src.OrderBy("rating", false)
		var fieldErr *shared.FieldError
		require.ErrorAs(t, err, &fieldErr)
	})

	t.Run("primary key maps to the id column", func(t *testing.T) {
		_, err := src.Filter(archive.Eq(archive.PrimaryKeyField, uuid.New().String()))
		assert.NoError(t, err)
	})

	t.Run("negative slice bounds", func(t *testing.T) {
		_, err := src.Slice(context.Background(), -1, 10)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestGormEntrySourceDependents(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the entry's comments oldest first", func(t *testing.T) {
		src, mock := newMockSource(t)
		entryID := uuid.New()
		commentID := uuid.New()
		posted := time.Date(2006, time.May, 2, 9, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT \* FROM "comments" WHERE entry_id = \$1 ORDER BY posted_at ASC`).
			WithArgs(entryID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "entry_id", "author", "body", "posted_at", "created_at"}).
				AddRow(commentID, entryID, "reader", "nice", posted, posted))

		entry := archive.NewRecord(entryID.String(), nil)
		deps, err := src.Dependents(ctx, entry)
		require.NoError(t, err)
		require.Len(t, deps, 1)
		assert.Equal(t, commentID.String(), deps[0].PrimaryKey())
		parent, ok := deps[0].Field("entry_id")
		require.True(t, ok)
		assert.Equal(t, entryID.String(), parent)
	})

	t.Run("rejects a non-uuid primary key", func(t *testing.T) {
		src, _ := newMockSource(t)
		_, err := src.Dependents(ctx, archive.NewRecord("42", nil))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
