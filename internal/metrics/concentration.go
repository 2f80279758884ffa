// Package metrics computes the few derived holder metrics that are not
// served by the analytics API: total balance, top-N share and rich-list
// changes against a baseline snapshot.
package metrics

import (
	"github.com/shopspring/decimal"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/normalization"
)

var hundred = decimal.NewFromInt(100)

// TotalBalance sums every holder balance.
func TotalBalance(holders []domain.HolderRow) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holders {
		total = total.Add(h.Balance)
	}
	return total
}

// TopNShare returns the percentage of the total balance held by the n
// best-ranked holders. Unranked holders sort after every ranked one.
// Returns 0 when the total balance is not positive or n <= 0.
func TopNShare(holders []domain.HolderRow, n int) float64 {
	if n <= 0 || len(holders) == 0 {
		return 0
	}
	total := TotalBalance(holders)
	if !total.IsPositive() {
		return 0
	}

	sorted := normalization.SortedHolders(holders)
	if n > len(sorted) {
		n = len(sorted)
	}
	top := TotalBalance(sorted[:n])

	share, _ := top.Div(total).Mul(hundred).Float64()
	return clampPercent(share)
}

// clampPercent keeps a share within [0, 100]. Negative balances in the
// input can push the ratio outside that range.
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
