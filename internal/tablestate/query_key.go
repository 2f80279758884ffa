package tablestate

import (
	"holder-analytics/internal/domain"
	"holder-analytics/internal/idhash"
)

// QueryKey returns the cache key of the state's current query.
func QueryKey(section domain.Section, resource domain.Resource, s State) string {
	return idhash.ComputeQueryKey(string(section), string(resource), s.Query().Params())
}
