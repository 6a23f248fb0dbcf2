package viewctx

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chronicle/backend/internal/domain/archive"
	"github.com/chronicle/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2006, time.May, 15, 10, 0, 0, 0, time.UTC)

var entryFields = []string{"title", "slug", "published_at"}

func newTestBuilder() *Builder {
	return NewBuilder(shared.FixedClock{Instant: testNow}, nil)
}

func newEntry(pk string, published time.Time) archive.Record {
	return archive.NewRecord(pk, map[string]any{
		"title":        "Entry " + pk,
		"slug":         "entry-" + pk,
		"published_at": published,
	})
}

// monthOfEntries creates 25 records published daily from May 1st
func monthOfEntries() archive.RecordSource {
	records := make([]archive.Record, 25)
	first := time.Date(2006, time.May, 1, 9, 0, 0, 0, time.UTC)
	for i := range records {
		records[i] = newEntry(fmt.Sprintf("%d", i+1), first.AddDate(0, 0, i))
	}
	src, err := archive.NewSliceSource(entryFields, records).OrderBy("published_at", false)
	if err != nil {
		panic(err)
	}
	return src
}

func boolPtr(b bool) *bool { return &b }

func TestBuildValidation(t *testing.T) {
	b := newTestBuilder()
	ctx := context.Background()

	t.Run("reports every missing key at once", func(t *testing.T) {
		_, err := b.Build(ctx, archive.KindDetail, Config{})
		var cfgErr *shared.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.ElementsMatch(t, []string{"source", "date_field", "year", "month", "day", "object_id or slug"}, cfgErr.Missing)
	})

	t.Run("unknown kind is a config error", func(t *testing.T) {
		_, err := b.Build(ctx, archive.Kind("calendar"), Config{Source: monthOfEntries(), DateField: "published_at"})
		var cfgErr *shared.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Missing, "kind")
	})

	t.Run("detail rejects both object id and slug", func(t *testing.T) {
		_, err := b.Build(ctx, archive.KindDetail, Config{
			Source:    monthOfEntries(),
			DateField: "published_at",
			Year:      2006, Month: 5, Day: 1,
			ObjectID: "1", Slug: "entry-1", SlugField: "slug",
		})
		var cfgErr *shared.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("slug without slug field", func(t *testing.T) {
		_, err := b.Build(ctx, archive.KindDetail, Config{
			Source:    monthOfEntries(),
			DateField: "published_at",
			Year:      2006, Month: 5, Day: 1,
			Slug: "entry-1",
		})
		var cfgErr *shared.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, []string{"slug_field"}, cfgErr.Missing)
	})

	t.Run("rejects a normalized calendar date", func(t *testing.T) {
		// February 31st would roll over to March 3rd and resolve the
		// wrong bucket.
		for _, kind := range []archive.Kind{archive.KindDay, archive.KindDetail} {
			_, err := b.Build(ctx, kind, Config{
				Source:    monthOfEntries(),
				DateField: "published_at",
				Year:      2006, Month: 2, Day: 31,
				ObjectID: "1",
			})
			var cfgErr *shared.ConfigError
			require.ErrorAs(t, err, &cfgErr, "kind %s", kind)
			assert.Equal(t, []string{"day"}, cfgErr.Missing)
		}
	})

	t.Run("rejects February 29th outside leap years", func(t *testing.T) {
		_, err := b.Build(ctx, archive.KindDay, Config{
			Source:    monthOfEntries(),
			DateField: "published_at",
			Year:      2006, Month: 2, Day: 29,
		})
		var cfgErr *shared.ConfigError
		require.ErrorAs(t, err, &cfgErr)

		_, err = b.Build(ctx, archive.KindDay, Config{
			Source:    monthOfEntries(),
			DateField: "published_at",
			Year:      2004, Month: 2, Day: 29,
		})
		assert.NoError(t, err, "2004 is a leap year")
	})

	t.Run("list does not require a date field", func(t *testing.T) {
		_, err := b.Build(ctx, archive.KindList, Config{Source: monthOfEntries(), PageSize: 10})
		assert.NoError(t, err)
	})
}

func TestBuildListPagination(t *testing.T) {
	b := newTestBuilder()
	ctx := context.Background()
	src := monthOfEntries()

	t.Run("first page of 25 records at size 10", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindList, Config{Source: src, PageSize: 10, Page: 1})
		require.NoError(t, err)

		items := result["object_list"].([]archive.Record)
		require.Len(t, items, 10)
		assert.Equal(t, "1", items[0].PrimaryKey())
		assert.Equal(t, "10", items[9].PrimaryKey())
		assert.Equal(t, true, result["is_paginated"])
		assert.Equal(t, true, result["has_next"])
		assert.Equal(t, false, result["has_previous"])
		assert.Equal(t, 3, result["pages"])
		assert.Equal(t, 25, result["hits"])
	})

	t.Run("last page", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindList, Config{Source: src, PageSize: 10, Page: 3})
		require.NoError(t, err)

		items := result["object_list"].([]archive.Record)
		require.Len(t, items, 5)
		assert.Equal(t, "21", items[0].PrimaryKey())
		assert.Equal(t, "25", items[4].PrimaryKey())
		assert.Equal(t, false, result["has_next"])
		assert.Equal(t, true, result["has_previous"])
		assert.Equal(t, 3, result["pages"])
	})

	t.Run("page size zero disables pagination", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindList, Config{Source: src, PageSize: 0})
		require.NoError(t, err)
		assert.Equal(t, false, result["is_paginated"])
		assert.Len(t, result["object_list"].([]archive.Record), 25)
		assert.NotContains(t, result, "page")
	})
}

func TestPagePrecedence(t *testing.T) {
	b := newTestBuilder()
	ctx := context.Background()
	src := monthOfEntries()

	t.Run("structured page wins over query string", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindList, Config{Source: src, PageSize: 10, Page: 2, PageQuery: "3"})
		require.NoError(t, err)
		assert.Equal(t, 2, result["page"])
	})

	t.Run("query string used when structured page absent", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindList, Config{Source: src, PageSize: 10, PageQuery: "3"})
		require.NoError(t, err)
		assert.Equal(t, 3, result["page"])
	})

	t.Run("defaults to page one", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindList, Config{Source: src, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, result["page"])
	})

	t.Run("garbage query string page", func(t *testing.T) {
		_, err := b.Build(ctx, archive.KindList, Config{Source: src, PageSize: 10, PageQuery: "latest"})
		assert.ErrorIs(t, err, shared.ErrPageNotFound)
	})
}

func TestBuildArchiveKinds(t *testing.T) {
	b := newTestBuilder()
	ctx := context.Background()
	src := monthOfEntries()

	t.Run("index", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindIndex, Config{Source: src, DateField: "published_at", NumLatest: 5})
		require.NoError(t, err)
		assert.Len(t, result["latest"].([]archive.Record), 5)
		dateList := result["date_list"].([]time.Time)
		require.Len(t, dateList, 1)
		assert.Equal(t, 2006, dateList[0].Year())
	})

	t.Run("year", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindYear, Config{Source: src, DateField: "published_at", Year: 2006})
		require.NoError(t, err)
		assert.Equal(t, 2006, result["year"])
		assert.NotNil(t, result["object_list"])
	})

	t.Run("month context carries navigation", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindMonth, Config{Source: src, DateField: "published_at", Year: 2006, Month: 5})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2006, time.May, 1, 0, 0, 0, 0, time.UTC), result["month"])
		assert.Nil(t, result["next_month"])
		assert.Equal(t, time.Date(2006, time.April, 1, 0, 0, 0, 0, time.UTC), result["previous_month"])
		// Only records up to "now" are visible.
		assert.Len(t, result["object_list"].([]archive.Record), 15)
	})

	t.Run("week", func(t *testing.T) {
		// Week 20 of 2006 starts Sunday May 14th.
		result, err := b.Build(ctx, archive.KindWeek, Config{Source: src, DateField: "published_at", Year: 2006, Week: 20})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2006, time.May, 14, 0, 0, 0, 0, time.UTC), result["week"])
	})

	t.Run("day with records", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindDay, Config{Source: src, DateField: "published_at", Year: 2006, Month: 5, Day: 3})
		require.NoError(t, err)
		items := result["object_list"].([]archive.Record)
		require.Len(t, items, 1)
		assert.Equal(t, "3", items[0].PrimaryKey())
	})

	t.Run("empty day disallowed raises not found", func(t *testing.T) {
		_, err := b.Build(ctx, archive.KindDay, Config{
			Source: src, DateField: "published_at",
			Year: 2006, Month: 4, Day: 1,
			AllowEmpty: boolPtr(false),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("empty day allowed yields empty object list", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindDay, Config{
			Source: src, DateField: "published_at",
			Year: 2006, Month: 4, Day: 1,
		})
		require.NoError(t, err)
		assert.Empty(t, result["object_list"].([]archive.Record))
	})

	t.Run("today", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindToday, Config{Source: src, DateField: "published_at"})
		require.NoError(t, err)
		items := result["object_list"].([]archive.Record)
		require.Len(t, items, 1)
		assert.Equal(t, "15", items[0].PrimaryKey())
	})

	t.Run("detail", func(t *testing.T) {
		result, err := b.Build(ctx, archive.KindDetail, Config{
			Source: src, DateField: "published_at",
			Year: 2006, Month: 5, Day: 7,
			Slug: "entry-7", SlugField: "slug",
		})
		require.NoError(t, err)
		assert.Equal(t, "7", result["object"].(archive.Record).PrimaryKey())
	})
}

func TestBuildIsDeterministic(t *testing.T) {
	b := newTestBuilder()
	ctx := context.Background()
	src := monthOfEntries()
	cfg := Config{Source: src, DateField: "published_at", Year: 2006, Month: 5}

	first, err := b.Build(ctx, archive.KindMonth, cfg)
	require.NoError(t, err)
	second, err := b.Build(ctx, archive.KindMonth, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
