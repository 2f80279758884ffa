// Package chart prepares normalized series for rendering: totals, trailing
// moving averages and bucketed downsampling.
package chart

import (
	"holder-analytics/internal/domain"
)

// Point is a series point augmented with derived fields.
type Point struct {
	Timestamp     string             `json:"timestamp"`
	Metrics       map[string]float64 `json:"metrics"`
	Total         float64            `json:"total"`
	MovingAverage float64            `json:"ma7"`
}

// FromSeries copies a normalized series into chart points.
func FromSeries(series []domain.TimeSeriesPoint) []Point {
	points := make([]Point, len(series))
	for i, p := range series {
		metrics := make(map[string]float64, len(p.Metrics))
		for k, v := range p.Metrics {
			metrics[k] = v
		}
		points[i] = Point{Timestamp: p.Timestamp, Metrics: metrics}
	}
	return points
}

// WithTotals sets Total to the sum of each point's metrics.
func WithTotals(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		total := 0.0
		for _, v := range p.Metrics {
			total += v
		}
		p.Total = total
		out[i] = p
	}
	return out
}
