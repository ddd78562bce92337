package zeen

const (
	DefaultFollowersPerPage = 20
	DefaultPostsPerPage     = 10
	MaxPerPage              = 100
)

// Pagination describes one page of a listing. Page is 1 based.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// NewPagination clamps page and perPage, falling back to defaultPerPage
func NewPagination(page, perPage, defaultPerPage int) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Pages is the total number of pages, at least 1
func (p Pagination) Pages() int {
	if p.PerPage < 1 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Pagination) HasNext() bool {
	return p.Page < p.Pages()
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}
