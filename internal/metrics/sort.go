package metrics

import (
	"sort"

	"holder-analytics/internal/domain"
)

// sortByChange orders entries by |ChangeAbsolute| DESC, then address ASC.
func sortByChange(entries []domain.HolderEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ai, aj := entries[i].ChangeAbsolute.Abs(), entries[j].ChangeAbsolute.Abs()
		if c := ai.Cmp(aj); c != 0 {
			return c > 0
		}
		return entries[i].Address < entries[j].Address
	})
}
