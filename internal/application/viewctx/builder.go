package viewctx

import (
	"context"
	"strconv"
	"time"

	"github.com/chronicle/backend/internal/domain/archive"
	"github.com/chronicle/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Config is the declarative per-resolution configuration. Which keys are
// required depends on the query kind; Build validates them all up front.
type Config struct {
	Source    archive.RecordSource
	DateField string

	// PageSize of 0 disables pagination for the list kind.
	PageSize int
	// Page is the structured page argument; it wins over PageQuery.
	Page int
	// PageQuery is the raw page number from the query string.
	PageQuery string

	// AllowEmpty defaults to true when nil.
	AllowEmpty  *bool
	AllowFuture bool

	NumLatest      int
	MakeObjectList bool

	Year  int
	Month int
	Week  int
	Day   int

	ObjectID  string
	Slug      string
	SlugField string
}

func (c Config) allowEmpty() bool {
	return c.AllowEmpty == nil || *c.AllowEmpty
}

// Builder produces the context mapping a template render consumes. Given the
// same kind, source and config it always produces the same mapping.
type Builder struct {
	resolver *archive.Resolver
	logger   *zap.Logger
}

// NewBuilder creates a Builder using the given clock
func NewBuilder(clock shared.Clock, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		resolver: archive.NewResolver(clock),
		logger:   logger.Named("viewctx"),
	}
}

// Build validates cfg for the kind and resolves the context mapping. All
// missing keys are reported at once in a ConfigError before any query runs.
func (b *Builder) Build(ctx context.Context, kind archive.Kind, cfg Config) (map[string]any, error) {
	if err := validate(kind, cfg); err != nil {
		b.logger.Debug("rejected view configuration",
			zap.String("kind", string(kind)),
			zap.Strings("missing", err.Missing))
		return nil, err
	}

	switch kind {
	case archive.KindList:
		return b.buildList(ctx, cfg)
	case archive.KindIndex:
		return b.buildIndex(ctx, cfg)
	case archive.KindYear:
		return b.buildYear(ctx, cfg)
	case archive.KindMonth:
		return b.buildMonth(ctx, cfg)
	case archive.KindWeek:
		return b.buildWeek(ctx, cfg)
	case archive.KindDay:
		return b.buildDay(ctx, cfg)
	case archive.KindToday:
		return b.buildToday(ctx, cfg)
	default:
		return b.buildDetail(ctx, cfg)
	}
}

func (b *Builder) buildList(ctx context.Context, cfg Config) (map[string]any, error) {
	if cfg.PageSize == 0 {
		total, err := cfg.Source.Count(ctx)
		if err != nil {
			return nil, err
		}
		items, err := cfg.Source.Slice(ctx, 0, total)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 && !cfg.allowEmpty() {
			return nil, shared.ErrNotFound
		}
		return map[string]any{
			"object_list":  items,
			"is_paginated": false,
			"hits":         total,
		}, nil
	}

	page, err := resolvePage(cfg)
	if err != nil {
		return nil, err
	}
	result, err := archive.Paginate(ctx, cfg.Source, cfg.PageSize, page, cfg.allowEmpty())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"object_list":  result.Items,
		"is_paginated": result.IsPaginated(),
		"page":         result.Number,
		"pages":        result.TotalPages,
		"has_next":     result.HasNext,
		"has_previous": result.HasPrevious,
		"next":         result.Next(),
		"previous":     result.Previous(),
		"hits":         result.TotalCount,
	}, nil
}

func (b *Builder) buildIndex(ctx context.Context, cfg Config) (map[string]any, error) {
	result, err := b.resolver.Index(ctx, cfg.Source, cfg.DateField, cfg.NumLatest, cfg.allowEmpty(), cfg.AllowFuture)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"latest":    result.Latest,
		"date_list": result.DateList,
	}, nil
}

func (b *Builder) buildYear(ctx context.Context, cfg Config) (map[string]any, error) {
	result, err := b.resolver.Year(ctx, cfg.Source, cfg.DateField, cfg.Year, cfg.MakeObjectList, cfg.allowEmpty(), cfg.AllowFuture)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"year":        result.Year,
		"date_list":   result.DateList,
		"object_list": result.Objects,
	}, nil
}

func (b *Builder) buildMonth(ctx context.Context, cfg Config) (map[string]any, error) {
	result, err := b.resolver.Month(ctx, cfg.Source, cfg.DateField, cfg.Year, time.Month(cfg.Month), cfg.allowEmpty(), cfg.AllowFuture)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"object_list":    result.Objects,
		"month":          result.Period,
		"next_month":     result.Next,
		"previous_month": result.Previous,
	}, nil
}

func (b *Builder) buildWeek(ctx context.Context, cfg Config) (map[string]any, error) {
	result, err := b.resolver.Week(ctx, cfg.Source, cfg.DateField, cfg.Year, cfg.Week, cfg.allowEmpty(), cfg.AllowFuture)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"object_list":   result.Objects,
		"week":          result.Period,
		"next_week":     result.Next,
		"previous_week": result.Previous,
	}, nil
}

func (b *Builder) buildDay(ctx context.Context, cfg Config) (map[string]any, error) {
	result, err := b.resolver.Day(ctx, cfg.Source, cfg.DateField, cfg.Year, time.Month(cfg.Month), cfg.Day, cfg.allowEmpty(), cfg.AllowFuture)
	if err != nil {
		return nil, err
	}
	return dayContext(result), nil
}

func (b *Builder) buildToday(ctx context.Context, cfg Config) (map[string]any, error) {
	result, err := b.resolver.Today(ctx, cfg.Source, cfg.DateField, cfg.allowEmpty(), cfg.AllowFuture)
	if err != nil {
		return nil, err
	}
	return dayContext(result), nil
}

func (b *Builder) buildDetail(ctx context.Context, cfg Config) (map[string]any, error) {
	key := archive.Lookup{PK: cfg.ObjectID, Slug: cfg.Slug, SlugField: cfg.SlugField}
	object, err := b.resolver.Detail(ctx, cfg.Source, cfg.DateField, cfg.Year, time.Month(cfg.Month), cfg.Day, key, cfg.AllowFuture)
	if err != nil {
		return nil, err
	}
	return map[string]any{"object": object}, nil
}

func dayContext(result *archive.PeriodResult) map[string]any {
	return map[string]any{
		"object_list":  result.Objects,
		"day":          result.Period,
		"next_day":     result.Next,
		"previous_day": result.Previous,
	}
}

// resolvePage applies the documented precedence: the structured page argument
// wins over the query-string value; absent both, page 1.
func resolvePage(cfg Config) (int, error) {
	if cfg.Page > 0 {
		return cfg.Page, nil
	}
	if cfg.PageQuery != "" {
		page, err := strconv.Atoi(cfg.PageQuery)
		if err != nil {
			return 0, shared.ErrPageNotFound
		}
		return page, nil
	}
	return 1, nil
}

// validate collects every missing or invalid key for the kind so the caller
// sees the complete problem at once, before any query executes.
func validate(kind archive.Kind, cfg Config) *shared.ConfigError {
	var missing []string

	if !kind.IsValid() {
		missing = append(missing, "kind")
	}
	if cfg.Source == nil {
		missing = append(missing, "source")
	}

	needsDate := kind != archive.KindList
	if needsDate && cfg.DateField == "" {
		missing = append(missing, "date_field")
	}

	switch kind {
	case archive.KindList:
		if cfg.PageSize < 0 {
			missing = append(missing, "page_size")
		}
	case archive.KindYear:
		missing = append(missing, requireYear(cfg)...)
	case archive.KindMonth:
		missing = append(missing, requireYear(cfg)...)
		missing = append(missing, requireMonth(cfg)...)
	case archive.KindWeek:
		missing = append(missing, requireYear(cfg)...)
		if cfg.Week < 1 {
			missing = append(missing, "week")
		}
	case archive.KindDay:
		missing = append(missing, requireDate(cfg)...)
	case archive.KindDetail:
		missing = append(missing, requireDate(cfg)...)
		switch {
		case cfg.ObjectID == "" && cfg.Slug == "":
			missing = append(missing, "object_id or slug")
		case cfg.ObjectID != "" && cfg.Slug != "":
			missing = append(missing, "object_id and slug are mutually exclusive")
		case cfg.Slug != "" && cfg.SlugField == "":
			missing = append(missing, "slug_field")
		}
	}

	if len(missing) == 0 {
		return nil
	}
	return shared.NewConfigError(missing...)
}

func requireYear(cfg Config) []string {
	if cfg.Year < 1 {
		return []string{"year"}
	}
	return nil
}

func requireMonth(cfg Config) []string {
	if cfg.Month < 1 || cfg.Month > 12 {
		return []string{"month"}
	}
	return nil
}

func requireDay(cfg Config) []string {
	if cfg.Day < 1 || cfg.Day > 31 {
		return []string{"day"}
	}
	return nil
}

// requireDate checks year, month and day individually, then that together
// they name a real calendar date. time.Date normalizes overflow (February
// 31st becomes March 3rd), which would silently resolve a different bucket.
func requireDate(cfg Config) []string {
	missing := requireYear(cfg)
	missing = append(missing, requireMonth(cfg)...)
	missing = append(missing, requireDay(cfg)...)
	if len(missing) > 0 {
		return missing
	}
	d := time.Date(cfg.Year, time.Month(cfg.Month), cfg.Day, 0, 0, 0, 0, time.UTC)
	if d.Year() != cfg.Year || d.Month() != time.Month(cfg.Month) || d.Day() != cfg.Day {
		return []string{"day"}
	}
	return nil
}
