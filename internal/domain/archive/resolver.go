package archive

import (
	"context"
	"time"

	"github.com/chronicle/backend/internal/domain/shared"
)

// DefaultNumLatest is the number of records an index resolution returns when
// the caller does not ask for a specific amount.
const DefaultNumLatest = 15

// Kind is a closed set of archive query kinds
type Kind string

const (
	KindList   Kind = "list"
	KindIndex  Kind = "index"
	KindYear   Kind = "year"
	KindMonth  Kind = "month"
	KindWeek   Kind = "week"
	KindDay    Kind = "day"
	KindToday  Kind = "today"
	KindDetail Kind = "detail"
)

// IsValid reports whether the kind is one of the known query kinds
func (k Kind) IsValid() bool {
	switch k {
	case KindList, KindIndex, KindYear, KindMonth, KindWeek, KindDay, KindToday, KindDetail:
		return true
	}
	return false
}

// IndexResult holds an archive-index resolution: the most recent records and
// the distinct years with records, newest year first.
type IndexResult struct {
	Latest   []Record
	DateList []time.Time
}

// YearResult holds a year-archive resolution: the distinct months with
// records in ascending order, plus the year's full record list when asked
// for. Objects is empty but never nil otherwise, so iteration stays safe.
type YearResult struct {
	Year     int
	DateList []time.Time
	Objects  []Record
}

// PeriodResult holds a month, week or day resolution. Next is nil when the
// following period is entirely in the future and future items are hidden;
// Previous always resolves.
type PeriodResult struct {
	Period   time.Time
	Objects  []Record
	Next     *time.Time
	Previous time.Time
}

// Resolver answers archive queries by composing the bucketer with record
// source reads. Every resolution is stateless and single-shot; the resolver
// may be shared across concurrent requests.
type Resolver struct {
	bucketer *Bucketer
	clock    shared.Clock
}

// NewResolver creates a Resolver using the given clock
func NewResolver(clock shared.Clock) *Resolver {
	return &Resolver{
		bucketer: NewBucketer(clock),
		clock:    clock,
	}
}

// Bucketer exposes the resolver's bucketer for period navigation
func (r *Resolver) Bucketer() *Bucketer {
	return r.bucketer
}

// Index resolves the archive index: the numLatest most recent records plus
// the years carrying records, descending.
func (r *Resolver) Index(ctx context.Context, src RecordSource, dateField string, numLatest int, allowEmpty, allowFuture bool) (*IndexResult, error) {
	if numLatest <= 0 {
		numLatest = DefaultNumLatest
	}

	dateList, err := r.bucketer.DistinctPeriods(ctx, src, dateField, GranularityYear, true, allowFuture)
	if err != nil {
		return nil, err
	}
	if len(dateList) == 0 && !allowEmpty {
		return nil, shared.ErrNotFound
	}

	latest, err := r.bucketer.Latest(ctx, src, dateField, numLatest, allowFuture)
	if err != nil {
		return nil, err
	}

	return &IndexResult{Latest: latest, DateList: dateList}, nil
}

// Year resolves a year archive: the months carrying records in ascending
// order, plus the year's record list when makeObjectList is set.
func (r *Resolver) Year(ctx context.Context, src RecordSource, dateField string, year int, makeObjectList, allowEmpty, allowFuture bool) (*YearResult, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, r.location())
	view, err := rangeView(src, dateField, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}

	dateList, err := r.bucketer.DistinctPeriods(ctx, view, dateField, GranularityMonth, false, allowFuture)
	if err != nil {
		return nil, err
	}
	if len(dateList) == 0 && !allowEmpty {
		return nil, shared.ErrNotFound
	}

	objects := []Record{}
	if makeObjectList {
		objects, err = r.bucketObjects(ctx, view, dateField, allowFuture)
		if err != nil {
			return nil, err
		}
	}

	return &YearResult{Year: year, DateList: dateList, Objects: objects}, nil
}

// Month resolves a month archive with navigation pointers
func (r *Resolver) Month(ctx context.Context, src RecordSource, dateField string, year int, month time.Month, allowEmpty, allowFuture bool) (*PeriodResult, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, r.location())
	objects, err := r.periodObjects(ctx, src, dateField, start, start.AddDate(0, 1, 0), allowEmpty, allowFuture)
	if err != nil {
		return nil, err
	}
	return &PeriodResult{
		Period:   start,
		Objects:  objects,
		Next:     r.bucketer.NextMonth(start, allowFuture),
		Previous: PreviousMonth(start),
	}, nil
}

// Week resolves a week archive. Weeks start on Sunday; week 1 of a year is
// the week containing January 1st.
func (r *Resolver) Week(ctx context.Context, src RecordSource, dateField string, year, week int, allowEmpty, allowFuture bool) (*PeriodResult, error) {
	if week < 1 {
		return nil, shared.ErrInvalidInput
	}
	start := WeekStart(year, week, r.location())
	objects, err := r.periodObjects(ctx, src, dateField, start, start.AddDate(0, 0, 7), allowEmpty, allowFuture)
	if err != nil {
		return nil, err
	}
	return &PeriodResult{
		Period:   start,
		Objects:  objects,
		Next:     r.bucketer.NextWeek(start, allowFuture),
		Previous: PreviousWeek(start),
	}, nil
}

// Day resolves a day archive with navigation pointers
func (r *Resolver) Day(ctx context.Context, src RecordSource, dateField string, year int, month time.Month, day int, allowEmpty, allowFuture bool) (*PeriodResult, error) {
	start := time.Date(year, month, day, 0, 0, 0, 0, r.location())
	objects, err := r.periodObjects(ctx, src, dateField, start, start.AddDate(0, 0, 1), allowEmpty, allowFuture)
	if err != nil {
		return nil, err
	}
	return &PeriodResult{
		Period:   start,
		Objects:  objects,
		Next:     r.bucketer.NextDay(start, allowFuture),
		Previous: PreviousDay(start),
	}, nil
}

// Today resolves the day archive for the current calendar date
func (r *Resolver) Today(ctx context.Context, src RecordSource, dateField string, allowEmpty, allowFuture bool) (*PeriodResult, error) {
	now := r.clock.Now()
	return r.Day(ctx, src, dateField, now.Year(), now.Month(), now.Day(), allowEmpty, allowFuture)
}

// Detail resolves a single record scoped to a calendar day
func (r *Resolver) Detail(ctx context.Context, src RecordSource, dateField string, year int, month time.Month, day int, key Lookup, allowFuture bool) (Record, error) {
	return r.bucketer.ObjectAtDate(ctx, src, dateField, year, month, day, r.location(), key, allowFuture)
}

// periodObjects returns the records of one period, most recent first,
// honoring future suppression and the allow-empty rule.
func (r *Resolver) periodObjects(ctx context.Context, src RecordSource, dateField string, start, end time.Time, allowEmpty, allowFuture bool) ([]Record, error) {
	view, err := rangeView(src, dateField, start, end)
	if err != nil {
		return nil, err
	}
	objects, err := r.bucketObjects(ctx, view, dateField, allowFuture)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 && !allowEmpty {
		return nil, shared.ErrNotFound
	}
	return objects, nil
}

func (r *Resolver) bucketObjects(ctx context.Context, view RecordSource, dateField string, allowFuture bool) ([]Record, error) {
	view, err := r.bucketer.visible(view, dateField, allowFuture)
	if err != nil {
		return nil, err
	}
	view, err = view.OrderBy(dateField, true)
	if err != nil {
		return nil, err
	}
	total, err := view.Count(ctx)
	if err != nil {
		return nil, err
	}
	return view.Slice(ctx, 0, total)
}

func rangeView(src RecordSource, dateField string, start, end time.Time) (RecordSource, error) {
	view, err := src.Filter(Gte(dateField, start))
	if err != nil {
		return nil, err
	}
	return view.Filter(Lt(dateField, end))
}

func (r *Resolver) location() *time.Location {
	return r.clock.Now().Location()
}
