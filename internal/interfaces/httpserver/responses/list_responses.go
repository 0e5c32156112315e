package responses

import "tieba-server/services/messaging-api/internal/domain/query"

// ListResponse is the envelope of every paginated listing.
type ListResponse[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	Total   int64  `json:"total"`
	HasMore bool   `json:"has_more"`
}

// NewListResponse wraps one page of items.
func NewListResponse[T any](items []T, total int64, pagination query.Pagination) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Object:  "list",
		Data:    items,
		Total:   total,
		HasMore: pagination.HasMore(len(items), total),
	}
}

// MapItems converts domain values with fn, skipping nil entries.
func MapItems[S any, T any](items []*S, fn func(*S) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, fn(item))
	}
	return out
}

// AckResponse acknowledges a bulk mutation.
type AckResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}

// DeletedResponse confirms a deletion.
type DeletedResponse struct {
	ID      uint   `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
