package domain

import "strings"

// SortOrder is the table sort direction sent to the API.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// DefaultSortOrder is the direction a freshly selected sort column starts with.
const DefaultSortOrder = SortDesc

// String returns the string representation of SortOrder.
func (o SortOrder) String() string {
	return string(o)
}

// IsValid checks if the order is ASC or DESC.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// Toggle flips the direction.
func (o SortOrder) Toggle() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ParseSortOrder accepts asc/desc in any case. Empty input yields DefaultSortOrder.
func ParseSortOrder(s string) (SortOrder, bool) {
	if s == "" {
		return DefaultSortOrder, true
	}
	o := SortOrder(strings.ToUpper(s))
	return o, o.IsValid()
}
