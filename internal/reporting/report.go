package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"holder-analytics/internal/domain"
)

// RichListReport is a rich-list change report between two snapshots.
type RichListReport struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`
	LatestAt    int64     `json:"latest_at"`             // Unix ms
	BaselineAt  int64     `json:"baseline_at,omitempty"` // Unix ms, 0 when no baseline was available
	HasBaseline bool      `json:"has_baseline"`

	// Holder Summary
	Summary HolderSummary `json:"summary"`

	// Concentration (top-N shares, ascending N)
	Concentration []ConcentrationRow `json:"concentration"`

	// Entries ordered by rank ASC (unranked last)
	Entries []domain.HolderEntry `json:"entries"`

	// Movers ordered by absolute change DESC
	Gainers []domain.HolderEntry `json:"gainers"`
	Losers  []domain.HolderEntry `json:"losers"`
}

// HolderSummary describes the latest snapshot.
type HolderSummary struct {
	HolderCount  int             `json:"holder_count"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	NewHolders   int             `json:"new_holders"` // entries absent from the baseline
}

// ConcentrationRow is the share held by the top N holders.
type ConcentrationRow struct {
	TopN  int     `json:"top_n"`
	Share float64 `json:"share"` // percent, 0..100
}

// DefaultConcentrationTiers are the top-N cutoffs reported.
var DefaultConcentrationTiers = []int{1, 10, 50, 100}
