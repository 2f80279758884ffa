package normalization

import (
	"math"
	"sort"

	"holder-analytics/internal/domain"
)

// UnrankedSentinel is the effective rank of rows the API did not rank, so
// they always sort after every ranked row.
const UnrankedSentinel = math.MaxInt32

// EffectiveRank maps a missing rank (<= 0) to UnrankedSentinel.
func EffectiveRank(rank int) int {
	if rank <= 0 {
		return UnrankedSentinel
	}
	return rank
}

// SortHolders orders rows by (effective rank ASC, address ASC).
// This provides deterministic ordering when ranks tie or are missing.
func SortHolders(rows []domain.HolderRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return compareHolders(rows[i], rows[j]) < 0
	})
}

// SortedHolders returns a sorted copy of rows.
func SortedHolders(rows []domain.HolderRow) []domain.HolderRow {
	out := make([]domain.HolderRow, len(rows))
	copy(out, rows)
	SortHolders(out)
	return out
}

// compareHolders returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareHolders(a, b domain.HolderRow) int {
	ra, rb := EffectiveRank(a.Rank), EffectiveRank(b.Rank)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if a.Address != b.Address {
		if a.Address < b.Address {
			return -1
		}
		return 1
	}
	return 0
}
