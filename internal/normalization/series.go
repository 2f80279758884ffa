package normalization

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"holder-analytics/internal/domain"
)

// TimestampField is the identifier field of chart points.
const TimestampField = "timestamp"

// MetricsField holds the nested category map of a chart point.
const MetricsField = "metrics"

// timestampLayouts are the textual formats the API uses for point timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an API timestamp. Bare integers are unix seconds,
// or milliseconds when they exceed 1e11.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 || n < -1e11 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SeriesStats reports what series normalization discarded.
type SeriesStats struct {
	Stats
	Unparseable int // points whose timestamp could not be parsed
	Duplicates  int // points superseded by a later point with the same timestamp
}

// NormalizeSeries turns a chart payload (array of points or object keyed by
// timestamp) into a chronological series without duplicate timestamps.
//
// Metrics come from a nested "metrics" object or, when absent, from every
// numeric sibling of the timestamp. A repeated timestamp keeps its last
// occurrence in source order.
func NormalizeSeries(raw any) ([]domain.TimeSeriesPoint, SeriesStats) {
	records, base := normalizeCollection(raw, TimestampField)
	stats := SeriesStats{Stats: base}

	type timed struct {
		at    time.Time
		order int
		point domain.TimeSeriesPoint
	}

	byInstant := make(map[int64]timed, len(records))
	for i, rec := range records {
		ts := rec.ID(TimestampField)
		at, ok := ParseTimestamp(ts)
		if !ok {
			stats.Unparseable++
			continue
		}
		key := at.UnixNano()
		if _, dup := byInstant[key]; dup {
			stats.Duplicates++
		}
		byInstant[key] = timed{
			at:    at,
			order: i,
			point: domain.TimeSeriesPoint{Timestamp: ts, Metrics: pointMetrics(rec)},
		}
	}

	points := make([]timed, 0, len(byInstant))
	for _, p := range byInstant {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].at.Before(points[j].at)
	})

	out := make([]domain.TimeSeriesPoint, len(points))
	for i, p := range points {
		out[i] = p.point
	}
	return out, stats
}

// pointMetrics extracts category values from a chart record.
func pointMetrics(rec Record) map[string]float64 {
	metrics := make(map[string]float64)
	if nested, ok := rec[MetricsField].(map[string]any); ok {
		for k, v := range nested {
			if f, ok := Number(v); ok {
				metrics[k] = f
			}
		}
		return metrics
	}
	for k, v := range rec {
		if k == TimestampField {
			continue
		}
		if f, ok := Number(v); ok {
			metrics[k] = f
		}
	}
	return metrics
}

// TimestampMs returns the point time in unix milliseconds.
func TimestampMs(p domain.TimeSeriesPoint) (int64, bool) {
	at, ok := ParseTimestamp(p.Timestamp)
	if !ok {
		return 0, false
	}
	return at.UnixMilli(), true
}

// Categories returns the sorted union of metric keys across the series.
func Categories(points []domain.TimeSeriesPoint) []string {
	seen := make(map[string]struct{})
	for _, p := range points {
		for k := range p.Metrics {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
