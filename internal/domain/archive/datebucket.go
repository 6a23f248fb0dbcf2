package archive

import (
	"context"
	"time"

	"github.com/chronicle/backend/internal/domain/shared"
)

// Granularity is a calendar bucketing unit
type Granularity string

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"
	GranularityDay   Granularity = "day"
)

// IsValid reports whether the granularity is one of the known units
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityYear, GranularityMonth, GranularityWeek, GranularityDay:
		return true
	}
	return false
}

// Lookup identifies a single record within a calendar day, either by primary
// key or by a slug scoped to a slug field.
type Lookup struct {
	PK        string
	Slug      string
	SlugField string
}

// Bucketer groups and filters records by calendar unit. The clock is
// injected so future-item suppression stays deterministic under test.
type Bucketer struct {
	clock shared.Clock
}

// NewBucketer creates a Bucketer using the given clock
func NewBucketer(clock shared.Clock) *Bucketer {
	return &Bucketer{clock: clock}
}

// visible hides records dated strictly later than now unless allowFuture is
// set. Evaluated at query time, never cached.
func (b *Bucketer) visible(src RecordSource, dateField string, allowFuture bool) (RecordSource, error) {
	if allowFuture {
		return src, nil
	}
	return src.Filter(Lte(dateField, b.clock.Now()))
}

// Latest returns up to limit records, most recent first
func (b *Bucketer) Latest(ctx context.Context, src RecordSource, dateField string, limit int, allowFuture bool) ([]Record, error) {
	if limit < 0 {
		return nil, shared.ErrInvalidInput
	}
	view, err := b.visible(src, dateField, allowFuture)
	if err != nil {
		return nil, err
	}
	view, err = view.OrderBy(dateField, true)
	if err != nil {
		return nil, err
	}
	return view.Slice(ctx, 0, limit)
}

// DistinctPeriods returns the distinct period keys covering the source's
// records, each key being the period's first instant. Chronological order is
// ascending unless descending is set.
func (b *Bucketer) DistinctPeriods(ctx context.Context, src RecordSource, dateField string, g Granularity, descending, allowFuture bool) ([]time.Time, error) {
	if !g.IsValid() {
		return nil, shared.ErrInvalidInput
	}
	view, err := b.visible(src, dateField, allowFuture)
	if err != nil {
		return nil, err
	}
	view, err = view.OrderBy(dateField, descending)
	if err != nil {
		return nil, err
	}
	total, err := view.Count(ctx)
	if err != nil {
		return nil, err
	}
	records, err := view.Slice(ctx, 0, total)
	if err != nil {
		return nil, err
	}

	periods := make([]time.Time, 0, len(records))
	for _, rec := range records {
		date, err := DateOf(rec, dateField)
		if err != nil {
			return nil, err
		}
		start := PeriodStart(date, g)
		// Dates arrive in chronological order, so equal periods are adjacent.
		if n := len(periods); n > 0 && periods[n-1].Equal(start) {
			continue
		}
		periods = append(periods, start)
	}
	return periods, nil
}

// ObjectAtDate resolves exactly one record whose date field falls within the
// given calendar day. Zero or multiple matches fail with ErrNotFound; an
// ambiguous slug within a day is a data-integrity problem the engine refuses
// to resolve silently.
func (b *Bucketer) ObjectAtDate(ctx context.Context, src RecordSource, dateField string, year int, month time.Month, day int, loc *time.Location, key Lookup, allowFuture bool) (Record, error) {
	view, err := b.visible(src, dateField, allowFuture)
	if err != nil {
		return nil, err
	}

	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	view, err = view.Filter(Gte(dateField, start))
	if err != nil {
		return nil, err
	}
	view, err = view.Filter(Lt(dateField, start.AddDate(0, 0, 1)))
	if err != nil {
		return nil, err
	}

	switch {
	case key.PK != "":
		view, err = view.Filter(Eq(PrimaryKeyField, key.PK))
	case key.Slug != "" && key.SlugField != "":
		view, err = view.Filter(Eq(key.SlugField, key.Slug))
	default:
		return nil, shared.ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}

	matches, err := view.Slice(ctx, 0, 2)
	if err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		return nil, shared.ErrNotFound
	}
	return matches[0], nil
}

// PeriodStart truncates a date to the first instant of its period
func PeriodStart(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case GranularityWeek:
		return SundayOnOrBefore(t)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SundayOnOrBefore returns the most recent Sunday on or before t, at
// midnight. The first day of a week is Sunday regardless of locale.
func SundayOnOrBefore(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekStart returns the first instant of the numbered week of a year. Weeks
// are 1-based; week 1 is the week containing January 1st.
func WeekStart(year, week int, loc *time.Location) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return SundayOnOrBefore(jan1).AddDate(0, 0, (week-1)*7)
}

// NextMonth returns the first day of the month after the given one, or nil
// when that month is entirely in the future and future items are hidden.
func (b *Bucketer) NextMonth(month time.Time, allowFuture bool) *time.Time {
	next := PeriodStart(month, GranularityMonth).AddDate(0, 1, 0)
	return b.nextPeriod(next, allowFuture)
}

// PreviousMonth returns the first day of the month before the given one.
// Past periods always resolve, even when they hold no records.
func PreviousMonth(month time.Time) time.Time {
	return PeriodStart(month, GranularityMonth).AddDate(0, -1, 0)
}

// NextWeek returns the start of the week after the given one, or nil when it
// is entirely in the future and future items are hidden.
func (b *Bucketer) NextWeek(week time.Time, allowFuture bool) *time.Time {
	next := PeriodStart(week, GranularityWeek).AddDate(0, 0, 7)
	return b.nextPeriod(next, allowFuture)
}

// PreviousWeek returns the start of the week before the given one
func PreviousWeek(week time.Time) time.Time {
	return PeriodStart(week, GranularityWeek).AddDate(0, 0, -7)
}

// NextDay returns the day after the given one, or nil when it is in the
// future and future items are hidden.
func (b *Bucketer) NextDay(day time.Time, allowFuture bool) *time.Time {
	next := PeriodStart(day, GranularityDay).AddDate(0, 0, 1)
	return b.nextPeriod(next, allowFuture)
}

// PreviousDay returns the day before the given one
func PreviousDay(day time.Time) time.Time {
	return PeriodStart(day, GranularityDay).AddDate(0, 0, -1)
}

func (b *Bucketer) nextPeriod(start time.Time, allowFuture bool) *time.Time {
	if !allowFuture && start.After(b.clock.Now()) {
		return nil
	}
	return &start
}
