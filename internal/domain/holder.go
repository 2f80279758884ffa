package domain

import "github.com/shopspring/decimal"

// HolderRow is one address in a holder snapshot as served by the API.
// Rank 0 means the API did not rank the address.
type HolderRow struct {
	Address    string          `json:"address"`
	Rank       int             `json:"rank"`
	Balance    decimal.Decimal `json:"balance"`
	Percentage *float64        `json:"percentage,omitempty"`
}

// HolderSnapshot is the holder set observed at a point in time.
// Corresponds to holder_snapshots / holder_snapshot_rows in PostgreSQL.
type HolderSnapshot struct {
	TakenAtMs int64       // Unix timestamp in milliseconds
	Holders   []HolderRow // ordered by rank ASC
}

// HolderEntry is a rich-list row diffed against a baseline snapshot.
type HolderEntry struct {
	Address        string          `json:"address"`
	Rank           int             `json:"rank"`
	Balance        decimal.Decimal `json:"balance"`
	Percentage     float64         `json:"percentage"`
	ChangeAbsolute decimal.Decimal `json:"changeAbsolute"`
	ChangePercent  *float64        `json:"changePercent"`
}
