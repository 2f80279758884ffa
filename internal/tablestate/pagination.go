package tablestate

import (
	"holder-analytics/internal/domain"
)

// DerivePagination reconciles the API pagination block with local state.
// Fields present in meta win. Otherwise totalPages is ceil(total/limit),
// hasNext is page < totalPages and hasPrev is page > 1. Without a total the
// rows seen so far stand in for it, and a full page implies a next one.
func DerivePagination(meta domain.PageMeta, page, limit, rows int) domain.Pagination {
	p := domain.Pagination{Page: page, Limit: limit}
	if meta.Page != nil && *meta.Page > 0 {
		p.Page = *meta.Page
	}
	if meta.Limit != nil && *meta.Limit > 0 {
		p.Limit = *meta.Limit
	}
	if p.Page < 1 {
		p.Page = 1
	}

	if meta.Total != nil {
		p.Total = *meta.Total
	} else {
		p.Total = (p.Page-1)*p.Limit + rows
	}
	if p.Total < 0 {
		p.Total = 0
	}

	if meta.TotalPages != nil {
		p.TotalPages = *meta.TotalPages
	} else if p.Limit > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}

	switch {
	case meta.HasNext != nil:
		p.HasNext = *meta.HasNext
	case meta.Total == nil && meta.TotalPages == nil:
		// A full page with no count upstream may have more behind it.
		p.HasNext = p.Limit > 0 && rows >= p.Limit
		if p.HasNext {
			p.TotalPages = p.Page + 1
		}
	default:
		p.HasNext = p.Page < p.TotalPages
	}
	if meta.HasPrev != nil {
		p.HasPrev = *meta.HasPrev
	} else {
		p.HasPrev = p.Page > 1
	}
	return p
}
