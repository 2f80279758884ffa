package analyticsapi

import (
	"net/url"
	"strconv"
	"time"

	"holder-analytics/internal/domain"
)

// DateLayout is the wire format of startDate/endDate.
const DateLayout = "2006-01-02"

// WidgetParams are the query parameters of /widget.
type WidgetParams struct {
	Range domain.Range
}

// ChartParams are the query parameters of /chart.
type ChartParams struct {
	Range     domain.Range
	StartDate time.Time
	EndDate   time.Time
	Top       int
}

// TableParams are the query parameters of /table.
type TableParams struct {
	Range     domain.Range
	Page      int
	Limit     int
	SortBy    string
	SortOrder domain.SortOrder
	StartDate time.Time
	EndDate   time.Time
	Address   string
}

// StatsParams are the query parameters of /stats.
type StatsParams struct {
	Range domain.Range
}

func (p WidgetParams) values() url.Values {
	v := url.Values{}
	setRange(v, p.Range)
	return v
}

func (p ChartParams) values() url.Values {
	v := url.Values{}
	setRange(v, p.Range)
	setDates(v, p.StartDate, p.EndDate)
	if p.Top > 0 {
		v.Set("top", strconv.Itoa(p.Top))
	}
	return v
}

func (p TableParams) values() url.Values {
	v := url.Values{}
	setRange(v, p.Range)
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
		order := p.SortOrder
		if !order.IsValid() {
			order = domain.DefaultSortOrder
		}
		v.Set("sortOrder", order.String())
	}
	setDates(v, p.StartDate, p.EndDate)
	if p.Address != "" {
		v.Set("address", p.Address)
	}
	return v
}

func (p StatsParams) values() url.Values {
	v := url.Values{}
	setRange(v, p.Range)
	return v
}

func setRange(v url.Values, r domain.Range) {
	if r != "" {
		v.Set("range", r.String())
	}
}

func setDates(v url.Values, start, end time.Time) {
	if !start.IsZero() {
		v.Set("startDate", start.UTC().Format(DateLayout))
	}
	if !end.IsZero() {
		v.Set("endDate", end.UTC().Format(DateLayout))
	}
}
