package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	assert.Equal(t, Pagination{Limit: DefaultLimit}, Page(0, -3))
	assert.Equal(t, Pagination{Limit: MaxLimit, Offset: 5}, Page(1000, 5))
	assert.Equal(t, Pagination{Limit: 7, Offset: 2}, Page(7, 2))
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name       string
		p          Pagination
		length     int
		start, end int
	}{
		{"unbounded", All(), 5, 0, 5},
		{"first page", Pagination{Limit: 2}, 5, 0, 2},
		{"last partial page", Pagination{Limit: 2, Offset: 4}, 5, 4, 5},
		{"offset past end", Pagination{Limit: 2, Offset: 9}, 5, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.p.Window(tt.length)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestHasMore(t *testing.T) {
	assert.True(t, Pagination{Limit: 2}.HasMore(2, 3))
	assert.False(t, Pagination{Limit: 2, Offset: 2}.HasMore(1, 3))
	assert.False(t, All().HasMore(3, 3))
}
