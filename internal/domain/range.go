package domain

import "time"

// Range is a lookback window selector understood by the analytics API.
type Range string

const (
	Range24h  Range = "24h"
	Range7d   Range = "7d"
	Range30d  Range = "30d"
	Range90d  Range = "90d"
	Range180d Range = "180d"
	Range1y   Range = "1y"
	RangeAll  Range = "all"
)

// DefaultRange is used when a request carries no range selector.
const DefaultRange = Range30d

// Ranges lists every supported range in ascending window order.
var Ranges = []Range{Range24h, Range7d, Range30d, Range90d, Range180d, Range1y, RangeAll}

// String returns the string representation of Range.
func (r Range) String() string {
	return string(r)
}

// IsValid checks if the range is a supported value.
func (r Range) IsValid() bool {
	for _, v := range Ranges {
		if r == v {
			return true
		}
	}
	return false
}

// Lookback returns the window length. RangeAll reports ok=false.
func (r Range) Lookback() (time.Duration, bool) {
	switch r {
	case Range24h:
		return 24 * time.Hour, true
	case Range7d:
		return 7 * 24 * time.Hour, true
	case Range30d:
		return 30 * 24 * time.Hour, true
	case Range90d:
		return 90 * 24 * time.Hour, true
	case Range180d:
		return 180 * 24 * time.Hour, true
	case Range1y:
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

// ParseRange parses s, falling back to DefaultRange for an empty string.
func ParseRange(s string) (Range, bool) {
	if s == "" {
		return DefaultRange, true
	}
	r := Range(s)
	return r, r.IsValid()
}
