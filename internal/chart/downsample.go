package chart

import (
	"math"

	"holder-analytics/internal/domain"
)

// Downsampled is a series reduced to at most MaxPoints bucket averages.
type Downsampled struct {
	Points       []Point `json:"points"`
	Sampled      bool    `json:"sampled"`
	BucketSize   int     `json:"bucketSize"`
	SourceLength int     `json:"sourceLength"`
	MaxPoints    int     `json:"maxPoints"`
}

// Point count caps by chart mode and input size tier.
const (
	lineModerateLimit = 365
	lineLargeLimit    = 240
	lineHugeLimit     = 180

	barModerateLimit = 90
	barLargeLimit    = 60
	barHugeLimit     = 45

	moderateInputMax = 1000
	largeInputMax    = 5000
)

// TargetPoints returns the downsampling cap for a series of the given length
// rendered in mode. Bar charts get smaller caps than line/area charts and
// very large inputs get fewer points than moderately sized ones.
func TargetPoints(length int, mode domain.ChartMode) int {
	moderate, large, huge := lineModerateLimit, lineLargeLimit, lineHugeLimit
	if mode == domain.ChartModeBar {
		moderate, large, huge = barModerateLimit, barLargeLimit, barHugeLimit
	}
	switch {
	case length <= moderateInputMax:
		return moderate
	case length <= largeInputMax:
		return large
	default:
		return huge
	}
}

// Downsample partitions points into contiguous buckets of
// ceil(len/maxPoints) and replaces each bucket by one point: the timestamp
// of the bucket element at index len(bucket)/2 and the mean of every numeric
// field rounded half up. Inputs no longer than maxPoints (or maxPoints <= 0)
// are returned unchanged with Sampled=false.
func Downsample(points []Point, maxPoints int) Downsampled {
	res := Downsampled{
		Points:       points,
		BucketSize:   1,
		SourceLength: len(points),
		MaxPoints:    maxPoints,
	}
	if maxPoints <= 0 || len(points) <= maxPoints {
		return res
	}

	bucketSize := (len(points) + maxPoints - 1) / maxPoints
	out := make([]Point, 0, (len(points)+bucketSize-1)/bucketSize)
	for start := 0; start < len(points); start += bucketSize {
		end := start + bucketSize
		if end > len(points) {
			end = len(points)
		}
		out = append(out, averageBucket(points[start:end]))
	}

	res.Points = out
	res.Sampled = true
	res.BucketSize = bucketSize
	return res
}

// averageBucket averages every field over the bucket. A metric key absent
// from some points counts as zero for them.
func averageBucket(bucket []Point) Point {
	n := float64(len(bucket))
	sums := make(map[string]float64)
	total, ma := 0.0, 0.0
	for _, p := range bucket {
		for k, v := range p.Metrics {
			sums[k] += v
		}
		total += p.Total
		ma += p.MovingAverage
	}

	metrics := make(map[string]float64, len(sums))
	for k, s := range sums {
		metrics[k] = roundHalfUp(s / n)
	}
	return Point{
		Timestamp:     bucket[len(bucket)/2].Timestamp,
		Metrics:       metrics,
		Total:         roundHalfUp(total / n),
		MovingAverage: roundHalfUp(ma / n),
	}
}

// roundHalfUp rounds to the nearest integer with .5 going toward +Inf.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
