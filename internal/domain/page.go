package domain

const MaxPageLimit = 100

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page/limit, substituting defaultLimit for a missing limit.
func NewPage(page, limit, defaultLimit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func (p Page) Paginate(total int) Pagination {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		Page:        p.Page,
		Limit:       p.Limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}
