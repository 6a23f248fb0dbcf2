package archive

import (
	"context"

	"github.com/chronicle/backend/internal/domain/shared"
)

// Page is one slice of a paginated record source
type Page struct {
	Number      int
	Items       []Record
	HasNext     bool
	HasPrevious bool
	TotalPages  int
	TotalCount  int
	PageSize    int
}

// Next returns the next page number. It is always Number+1; HasNext says
// whether such a page exists.
func (p *Page) Next() int {
	return p.Number + 1
}

// Previous returns the previous page number. It is always Number-1;
// HasPrevious says whether such a page exists.
func (p *Page) Previous() int {
	return p.Number - 1
}

// IsPaginated reports whether pagination metadata is meaningful: false when
// everything fits on a single page, even if pagination was requested.
func (p *Page) IsPaginated() bool {
	return p.TotalCount > p.PageSize
}

// Paginate slices the source into a page of pageSize records. Page numbers
// are 1-based. An out-of-range page fails with ErrPageNotFound unless
// allowEmpty is set, in which case an empty page is returned instead.
func Paginate(ctx context.Context, src RecordSource, pageSize, page int, allowEmpty bool) (*Page, error) {
	if pageSize <= 0 {
		return nil, shared.ErrInvalidInput
	}

	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalPages := (total + pageSize - 1) / pageSize

	if page < 1 || page > totalPages {
		if !allowEmpty {
			return nil, shared.ErrPageNotFound
		}
		return &Page{
			Number:     page,
			Items:      []Record{},
			TotalPages: totalPages,
			TotalCount: total,
			PageSize:   pageSize,
		}, nil
	}

	items, err := src.Slice(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Number:      page,
		Items:       items,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
		TotalPages:  totalPages,
		TotalCount:  total,
		PageSize:    pageSize,
	}, nil
}
