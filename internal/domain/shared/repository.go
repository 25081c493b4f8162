package shared

// Filter carries list-query options from the transport layer down to a
// repository: pagination, sorting, free-text search, and field filters.
// Repositories validate OrderBy/OrderDir against their own whitelists.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

// Limit returns the page size, defaulting to 20 and capping at 100
func (f Filter) Limit() int {
	switch {
	case f.PageSize <= 0:
		return 20
	case f.PageSize > 100:
		return 100
	default:
		return f.PageSize
	}
}

// Offset returns the row offset for the requested page
func (f Filter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit()
}
