package domain

// PageMeta is the pagination block returned by table endpoints.
// Any field may be absent, hence the pointers.
type PageMeta struct {
	Total      *int  `json:"total,omitempty"`
	Page       *int  `json:"page,omitempty"`
	Limit      *int  `json:"limit,omitempty"`
	TotalPages *int  `json:"totalPages,omitempty"`
	HasNext    *bool `json:"hasNext,omitempty"`
	HasPrev    *bool `json:"hasPrev,omitempty"`
}

// Pagination is the reconciled pagination state of a table view.
type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// TablePage is one normalized page of table rows.
type TablePage struct {
	Rows       []map[string]any `json:"rows"`
	Pagination Pagination       `json:"pagination"`
	Dropped    int              `json:"dropped,omitempty"`
}
