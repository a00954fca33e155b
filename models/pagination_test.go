package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		total       int64
		want        Pagination
	}{
		{
			name: "middle page", page: 2, limit: 10, total: 25,
			want: Pagination{Page: 2, Limit: 10, Total: 25, TotalPages: 3, HasNext: true, HasPrev: true},
		},
		{
			name: "last page", page: 3, limit: 10, total: 25,
			want: Pagination{Page: 3, Limit: 10, Total: 25, TotalPages: 3, HasNext: false, HasPrev: true},
		},
		{
			name: "empty set", page: 1, limit: 10, total: 0,
			want: Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0},
		},
		{
			name: "limit capped", page: 1, limit: 500, total: 150,
			want: Pagination{Page: 1, Limit: 100, Total: 150, TotalPages: 2, HasNext: true},
		},
		{
			name: "defaults", page: 0, limit: 0, total: 5,
			want: Pagination{Page: 1, Limit: 10, Total: 5, TotalPages: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPagination(tt.page, tt.limit, tt.total))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 20, Offset(3, 10))
}

func TestOffsetHugePage(t *testing.T) {
	offset := Offset(100000000000000001, MaxPageLimit)
	assert.Positive(t, offset)
	assert.Equal(t, (MaxPage-1)*MaxPageLimit, offset)

	p := NewPagination(100000000000000001, MaxPageLimit, 3)
	assert.Equal(t, MaxPage, p.Page)
	assert.False(t, p.HasNext)
}
