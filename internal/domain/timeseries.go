package domain

// TimeSeriesPoint is a single chart sample as produced by the analytics API.
// Metrics maps a category key (holder bucket, validator, token) to its value.
type TimeSeriesPoint struct {
	Timestamp string             `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Total sums all metric values of the point.
func (p TimeSeriesPoint) Total() float64 {
	total := 0.0
	for _, v := range p.Metrics {
		total += v
	}
	return total
}

// SeriesPoint is an archived chart point.
// Corresponds to series_points table in ClickHouse.
type SeriesPoint struct {
	SeriesID    string             // <section>:<range>
	TimestampMs int64              // Unix timestamp in milliseconds
	Timestamp   string             // timestamp as reported by the API
	Metrics     map[string]float64 // category -> value
}

// SeriesID builds the archive identifier for a section chart at a range.
func SeriesID(section Section, r Range) string {
	return string(section) + ":" + string(r)
}
