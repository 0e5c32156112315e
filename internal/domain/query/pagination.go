package query

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination is a limit/offset window. A zero Limit means "no limit".
type Pagination struct {
	Limit  int
	Offset int
}

// Page builds a bounded pagination window, clamping out-of-range values.
func Page(limit, offset int) Pagination {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// All returns an unbounded window.
func All() Pagination {
	return Pagination{}
}

// HasMore reports whether rows remain after the current window.
func (p Pagination) HasMore(returned int, total int64) bool {
	if p.Limit == 0 {
		return false
	}
	return int64(p.Offset+returned) < total
}

// Window applies the pagination to an in-memory slice length and returns the bounds.
func (p Pagination) Window(length int) (start, end int) {
	start = p.Offset
	if start > length {
		start = length
	}
	end = length
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}
	return start, end
}
