package services

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page selects a window of a list. Zero values mean defaults.
type Page struct {
	Page  int
	Limit int
}

// Pagination describes the window returned with a list.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Page) describe(total int64) Pagination {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
