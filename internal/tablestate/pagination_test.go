package tablestate

import (
	"testing"

	"holder-analytics/internal/domain"
)

func TestDerivePagination(t *testing.T) {
	tests := []struct {
		name  string
		meta  domain.PageMeta
		page  int
		limit int
		rows  int
		want  domain.Pagination
	}{
		{
			name:  "derived from total",
			meta:  domain.PageMeta{Total: intPtr(101)},
			page:  2,
			limit: 25,
			rows:  25,
			want:  domain.Pagination{Total: 101, Page: 2, Limit: 25, TotalPages: 5, HasNext: true, HasPrev: true},
		},
		{
			name:  "last page",
			meta:  domain.PageMeta{Total: intPtr(50)},
			page:  2,
			limit: 25,
			rows:  25,
			want:  domain.Pagination{Total: 50, Page: 2, Limit: 25, TotalPages: 2, HasNext: false, HasPrev: true},
		},
		{
			name:  "api fields win",
			meta:  domain.PageMeta{Total: intPtr(50), TotalPages: intPtr(9), HasNext: boolPtr(true), HasPrev: boolPtr(false)},
			page:  2,
			limit: 25,
			rows:  25,
			want:  domain.Pagination{Total: 50, Page: 2, Limit: 25, TotalPages: 9, HasNext: true, HasPrev: false},
		},
		{
			name:  "api page and limit",
			meta:  domain.PageMeta{Total: intPtr(30), Page: intPtr(3), Limit: intPtr(10)},
			page:  1,
			limit: 25,
			rows:  10,
			want:  domain.Pagination{Total: 30, Page: 3, Limit: 10, TotalPages: 3, HasNext: false, HasPrev: true},
		},
		{
			name:  "no total uses rows seen",
			meta:  domain.PageMeta{},
			page:  3,
			limit: 10,
			rows:  4,
			want:  domain.Pagination{Total: 24, Page: 3, Limit: 10, TotalPages: 3, HasNext: false, HasPrev: true},
		},
		{
			name:  "no total full page has next",
			meta:  domain.PageMeta{},
			page:  2,
			limit: 10,
			rows:  10,
			want:  domain.Pagination{Total: 20, Page: 2, Limit: 10, TotalPages: 3, HasNext: true, HasPrev: true},
		},
		{
			name:  "empty",
			meta:  domain.PageMeta{Total: intPtr(0)},
			page:  1,
			limit: 25,
			want:  domain.Pagination{Total: 0, Page: 1, Limit: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePagination(tt.meta, tt.page, tt.limit, tt.rows)
			if got != tt.want {
				t.Errorf("DerivePagination() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
