package shared

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter carries the list options every repository accepts. Filters holds
// repository specific keys such as "status" or "category_id".
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter lists the first page, newest first.
func DefaultFilter() Filter {
	f := Filter{}
	f.Normalize()
	return f
}

// Normalize fills unset paging fields and clamps the page size.
func (f *Filter) Normalize() {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize <= 0:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if f.OrderBy == "" {
		f.OrderBy, f.OrderDir = "created_at", "desc"
	}
	if f.OrderDir == "" {
		f.OrderDir = "desc"
	}
	if f.Filters == nil {
		f.Filters = map[string]any{}
	}
}

func (f Filter) Offset() int {
	return max(f.Page-1, 0) * f.PageSize
}

// Paginated is the list envelope returned under "data" by list endpoints.
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	p := Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return p
}
