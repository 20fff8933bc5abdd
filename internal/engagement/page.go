package engagement

// Page describes an offset pagination window. Limit 0 means unbounded.
type Page struct {
	Page   int
	Limit  int
	Offset int
}

// NewPage normalizes page/limit. Page is 1-indexed; values below 1 become 1.
// A non-positive limit disables pagination.
func NewPage(page, limit int) Page {
	if limit <= 0 {
		return Page{Page: 1}
	}
	if page < 1 {
		page = 1
	}
	return Page{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Paginated reports whether a window applies.
func (p Page) Paginated() bool {
	return p.Limit > 0
}

// Pages returns ceil(total/limit), or 1 when unpaginated.
func (p Page) Pages(total int) int {
	if !p.Paginated() {
		return 1
	}
	return (total + p.Limit - 1) / p.Limit
}
