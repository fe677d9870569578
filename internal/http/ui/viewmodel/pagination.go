package viewmodel

// Pagination contains pagination metadata for list views.
type Pagination struct {
	Page       int
	TotalPages int
	PageSize   int
	HasPrev    bool
	HasNext    bool
	StartIndex int
	EndIndex   int
	TotalCount int
	PrevURL    string
	NextURL    string
}

// NewPagination derives the window bounds. shown is the number of rows on the page.
func NewPagination(page, pageSize, total, shown int) Pagination {
	p := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		HasPrev:    page > 1,
		HasNext:    page*pageSize < total,
		TotalPages: 1,
	}
	if pageSize > 0 && total > 0 {
		p.TotalPages = (total + pageSize - 1) / pageSize
	}
	if shown > 0 {
		p.StartIndex = (page-1)*pageSize + 1
		p.EndIndex = p.StartIndex + shown - 1
	}
	return p
}
