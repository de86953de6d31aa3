// Package pagination implements the page-number paging contract consumed by
// the REST layer: a 1-based page and a page size map to skip/take, and every
// listing response carries total-count metadata alongside the page of
// results.
package pagination

type Pagination struct {
	Page     int `form:"page,default=1" validate:"gte=1"`
	PageSize int `form:"page_size,default=10" validate:"gte=1,lte=250"` // Min 1, Max 250
}

// PageInfo is the out-of-band metadata the REST layer serializes into an
// X-Pagination style header.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// Normalize clamps the window to sane bounds so a zero value is usable.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 250 {
		p.PageSize = 250
	}
	return p
}

// Offset returns skip = (page-1)*pageSize.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// Limit returns take = pageSize.
func (p Pagination) Limit() int {
	return p.Normalize().PageSize
}

// BuildPageInfo derives page metadata from the total row count.
func BuildPageInfo(p Pagination, totalCount int64) PageInfo {
	p = p.Normalize()
	totalPages := totalCount / int64(p.PageSize)
	if totalCount%int64(p.PageSize) != 0 {
		totalPages++
	}
	return PageInfo{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasMore:    int64(p.Page) < totalPages,
	}
}
