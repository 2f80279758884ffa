package tablestate

import (
	"holder-analytics/internal/domain"
)

// Action is a named state transition.
type Action interface {
	apply(State) State
}

// Refresh re-enters loading without changing the query.
type Refresh struct{}

// SetPage jumps to Page, clamped to [1, TotalPages] when the page count is known.
type SetPage struct{ Page int }

// NextPage advances one page when the last fetch reported a next page.
type NextPage struct{}

// PrevPage goes back one page, never below 1.
type PrevPage struct{}

// SetPageSize changes the page size and resets to page 1.
type SetPageSize struct{ Size int }

// SortBy toggles the order when Field is already the sort field; a new
// field starts at DESC. Both reset to page 1.
type SortBy struct{ Field string }

// SetDateRange applies a date filter and resets to page 1.
type SetDateRange struct{ Range DateRange }

// ClearDateRange removes the date filter and resets to page 1.
type ClearDateRange struct{}

// SelectRange changes the lookback selector and resets to page 1.
type SelectRange struct{ Range domain.Range }

// FetchSucceeded completes a load with the API pagination block and the
// number of rows received.
type FetchSucceeded struct {
	Meta domain.PageMeta
	Rows int
}

// FetchFailed completes a load with an error.
type FetchFailed struct{ Err error }

func (Refresh) apply(s State) State {
	s.Status = StatusLoading
	s.Err = nil
	return s
}

func (a SetPage) apply(s State) State {
	page := a.Page
	if s.Pagination.TotalPages > 0 && page > s.Pagination.TotalPages {
		page = s.Pagination.TotalPages
	}
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

func (NextPage) apply(s State) State {
	if s.Pagination.HasNext {
		s.Page++
	}
	return s
}

func (PrevPage) apply(s State) State {
	if s.Page > 1 {
		s.Page--
	}
	return s
}

func (a SetPageSize) apply(s State) State {
	size := a.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if size == s.PageSize {
		return s
	}
	s.PageSize = size
	s.Page = 1
	return s
}

func (a SortBy) apply(s State) State {
	if a.Field == "" {
		return s
	}
	if a.Field == s.SortField {
		s.SortOrder = s.SortOrder.Toggle()
	} else {
		s.SortField = a.Field
		s.SortOrder = domain.DefaultSortOrder
	}
	s.Page = 1
	return s
}

func (a SetDateRange) apply(s State) State {
	if a.Range.Equal(s.DateRange) {
		return s
	}
	s.DateRange = a.Range
	s.Page = 1
	return s
}

func (ClearDateRange) apply(s State) State {
	if s.DateRange.IsZero() {
		return s
	}
	s.DateRange = DateRange{}
	s.Page = 1
	return s
}

func (a SelectRange) apply(s State) State {
	if !a.Range.IsValid() || a.Range == s.SelectedRange {
		return s
	}
	s.SelectedRange = a.Range
	s.Page = 1
	return s
}

func (a FetchSucceeded) apply(s State) State {
	if s.Status != StatusLoading {
		return s
	}
	s.Status = StatusSuccess
	s.Err = nil
	s.Pagination = DerivePagination(a.Meta, s.Page, s.PageSize, a.Rows)
	return s
}

func (a FetchFailed) apply(s State) State {
	if s.Status != StatusLoading {
		return s
	}
	s.Status = StatusError
	s.Err = a.Err
	return s
}

// Reduce applies a to s. When the query tuple changes the result is in
// loading with the error cleared; fetch completions are ignored unless a
// load is in flight.
func Reduce(s State, a Action) State {
	next := a.apply(s)
	if next.Query() != s.Query() {
		next.Status = StatusLoading
		next.Err = nil
	}
	return next
}
