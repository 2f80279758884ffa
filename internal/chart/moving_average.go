package chart

// DefaultMovingAverageWindow is the trailing window of the ma7 field.
const DefaultMovingAverageWindow = 7

// WithMovingAverage sets MovingAverage to the trailing simple moving average
// of Total over [max(0, i-window+1), i]. Leading points average over a
// partial window; there is no zero padding and no forward look.
func WithMovingAverage(points []Point, window int) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if window <= 0 {
		return out
	}

	totals := make([]float64, len(out))
	for i := range out {
		totals[i] = out[i].Total
	}
	for i, ma := range MovingAverage(totals, window) {
		out[i].MovingAverage = ma
	}
	return out
}

// MovingAverage computes the trailing SMA of values. Each window is summed
// afresh so a large value leaving the window cannot leave rounding residue
// behind.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		return out
	}
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, v := range values[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}
