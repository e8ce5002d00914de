package services

import "gorm.io/gorm"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request into the supported range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.Size
}

// lastPage is the highest page number holding rows, at least 1.
func lastPage(total int64, size int) int64 {
	if total == 0 {
		return 1
	}
	return (total + int64(size) - 1) / int64(size)
}

type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

func (p Page[T]) HasNext() bool {
	return int64(p.Page) < lastPage(p.Total, p.Size)
}

func (p Page[T]) HasPrevious() bool {
	return p.Page > 1
}

func emptyPage[T any](req PageRequest) *Page[T] {
	req = req.Normalize()
	return &Page[T]{Items: []T{}, Page: req.Page, Size: req.Size}
}

// paginate counts query, then loads the requested window into a page with
// the ordering and preloads applied by load. Pages past the end are an error,
// except the first page of an empty result.
func paginate[T any](query *gorm.DB, req PageRequest, load func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	req = req.Normalize()

	var total int64

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	// Compare page numbers rather than offsets so a huge page cannot wrap.
	if int64(req.Page) > lastPage(total, req.Size) {
		return nil, NotFoundError("Invalid page")
	}

	items := make([]T, 0, req.Size)

	if load != nil {
		query = load(query)
	}

	if err := query.Offset(req.offset()).Limit(req.Size).Find(&items).Error; err != nil {
		return nil, err
	}

	return &Page[T]{Items: items, Total: total, Page: req.Page, Size: req.Size}, nil
}
