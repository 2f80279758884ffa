// Package tablestate models the local state of a paginated, sortable table
// view as a single reducer with named actions.
package tablestate

import (
	"strconv"
	"time"

	"holder-analytics/internal/domain"
)

// Status is the fetch lifecycle of a table view.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Defaults for a freshly created view.
const (
	DefaultPageSize = 25
	MaxPageSize     = 500
)

// DateLayout is the wire format of startDate/endDate.
const DateLayout = "2006-01-02"

// DateRange is an optional inclusive date filter. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether both bounds are open.
func (d DateRange) IsZero() bool {
	return d.Start.IsZero() && d.End.IsZero()
}

// Equal compares both bounds as instants.
func (d DateRange) Equal(o DateRange) bool {
	return d.Start.Equal(o.Start) && d.End.Equal(o.End)
}

// State is the complete local state of one table view.
type State struct {
	Page          int
	PageSize      int
	SortField     string
	SortOrder     domain.SortOrder
	DateRange     DateRange
	SelectedRange domain.Range

	Status     Status
	Err        error
	Pagination domain.Pagination
}

// New returns the initial idle state.
func New() State {
	return State{
		Page:          1,
		PageSize:      DefaultPageSize,
		SortOrder:     domain.DefaultSortOrder,
		SelectedRange: domain.DefaultRange,
		Status:        StatusIdle,
	}
}

// Query is the parameter tuple that identifies a fetch. Any change to it
// re-enters loading.
type Query struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder domain.SortOrder
	StartDate string
	EndDate   string
	Range     domain.Range
}

// Query extracts the fetch tuple of s.
func (s State) Query() Query {
	q := Query{
		Page:      s.Page,
		PageSize:  s.PageSize,
		SortField: s.SortField,
		SortOrder: s.SortOrder,
		Range:     s.SelectedRange,
	}
	if !s.DateRange.Start.IsZero() {
		q.StartDate = s.DateRange.Start.UTC().Format(DateLayout)
	}
	if !s.DateRange.End.IsZero() {
		q.EndDate = s.DateRange.End.UTC().Format(DateLayout)
	}
	return q
}

// Params renders q as API query parameters. Empty values are omitted.
func (q Query) Params() map[string]string {
	params := map[string]string{
		"page":  strconv.Itoa(q.Page),
		"limit": strconv.Itoa(q.PageSize),
		"range": q.Range.String(),
	}
	if q.SortField != "" {
		params["sortBy"] = q.SortField
		params["sortOrder"] = q.SortOrder.String()
	}
	if q.StartDate != "" {
		params["startDate"] = q.StartDate
	}
	if q.EndDate != "" {
		params["endDate"] = q.EndDate
	}
	return params
}
