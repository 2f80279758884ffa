package metrics

import (
	"github.com/shopspring/decimal"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/normalization"
)

// DiffHolders compares the topN best-ranked rows of latest against baseline,
// keyed by address. topN <= 0 keeps every row.
//
// Percentage prefers the row's own percentage and falls back to its share of
// the latest snapshot total. An address absent from baseline is treated as
// new: ChangeAbsolute equals its balance and ChangePercent is nil. A
// non-positive baseline balance also yields a nil ChangePercent.
func DiffHolders(latest, baseline []domain.HolderRow, topN int) []domain.HolderEntry {
	sorted := normalization.SortedHolders(latest)
	if topN > 0 && topN < len(sorted) {
		sorted = sorted[:topN]
	}

	base := make(map[string]decimal.Decimal, len(baseline))
	for _, h := range baseline {
		base[h.Address] = h.Balance
	}

	total := TotalBalance(latest)
	entries := make([]domain.HolderEntry, 0, len(sorted))
	for _, h := range sorted {
		entry := domain.HolderEntry{
			Address:    h.Address,
			Rank:       h.Rank,
			Balance:    h.Balance,
			Percentage: percentage(h, total),
		}

		prev, ok := base[h.Address]
		if !ok {
			entry.ChangeAbsolute = h.Balance
		} else {
			entry.ChangeAbsolute = h.Balance.Sub(prev)
			if prev.IsPositive() {
				pct, _ := entry.ChangeAbsolute.Div(prev).Mul(hundred).Float64()
				entry.ChangePercent = &pct
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func percentage(h domain.HolderRow, total decimal.Decimal) float64 {
	if h.Percentage != nil {
		return *h.Percentage
	}
	if !total.IsPositive() {
		return 0
	}
	pct, _ := h.Balance.Div(total).Mul(hundred).Float64()
	return pct
}

// Movers splits entries into holders whose balance grew and those whose
// balance shrank, each ordered by absolute change descending.
func Movers(entries []domain.HolderEntry) (gainers, losers []domain.HolderEntry) {
	for _, e := range entries {
		switch e.ChangeAbsolute.Sign() {
		case 1:
			gainers = append(gainers, e)
		case -1:
			losers = append(losers, e)
		}
	}
	sortByChange(gainers)
	sortByChange(losers)
	return gainers, losers
}
