package store

// Default pagination values.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 200
)

// Page is a 1-based page request. Page values below 1 address the first
// page.
type Page struct {
	Page  int
	Limit int
}

// Normalize fills defaults and clamps the limit.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// PageResult is the envelope returned by paginated list endpoints.
type PageResult[T any] struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Data  []T `json:"data"`
}

// NewPageResult builds a PageResult, replacing a nil slice with an empty one
// so clients always receive an array.
func NewPageResult[T any](data []T, total int, p Page) PageResult[T] {
	if data == nil {
		data = []T{}
	}
	return PageResult[T]{Total: total, Page: p.Page, Limit: p.Limit, Data: data}
}
