package pagination

const (
	DefaultPageSize = 10
	MaxPageSize     = 500
)

// Page is one slice of a sorted, paginated upstream collection.
type Page[T any] struct {
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	Items      []T
}

// Query controls sorting and paging. Page is zero based.
type Query struct {
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

func DefaultQuery() Query {
	return Query{SortDesc: true, PageSize: DefaultPageSize}
}

// Normalize clamps out of range values to the upstream defaults.
func (q Query) Normalize() Query {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}
