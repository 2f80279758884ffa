package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holder-analytics/internal/domain"
)

func TestWithMovingAverage_PartialLeadingWindow(t *testing.T) {
	points := WithMovingAverage(seq(10, 20, 30, 40, 50, 60, 70, 80), DefaultMovingAverageWindow)

	require.Len(t, points, 8)
	assert.Equal(t, 10.0, points[0].MovingAverage)
	assert.Equal(t, 15.0, points[1].MovingAverage)
	assert.Equal(t, 20.0, points[2].MovingAverage)
	assert.Equal(t, 40.0, points[6].MovingAverage)
	// (20+30+...+80)/7
	assert.Equal(t, 50.0, points[7].MovingAverage)
}

func TestWithMovingAverage_NoLookahead(t *testing.T) {
	base := WithMovingAverage(seq(1, 2, 3, 4), 7)
	extended := WithMovingAverage(seq(1, 2, 3, 4, 1000), 7)

	for i := range base {
		assert.Equal(t, base[i].MovingAverage, extended[i].MovingAverage)
	}
}

func TestWithMovingAverage_DoesNotMutateInput(t *testing.T) {
	in := seq(1, 2, 3)
	_ = WithMovingAverage(in, 7)

	for _, p := range in {
		assert.Zero(t, p.MovingAverage)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	assert.Equal(t, []float64{2, 3, 5, 7}, got)

	assert.Equal(t, []float64{0, 0}, MovingAverage([]float64{1, 2}, 0))
}

func TestWithTotals(t *testing.T) {
	points := WithTotals([]Point{
		{Timestamp: "a", Metrics: map[string]float64{"whale": 3, "shrimp": 4}},
		{Timestamp: "b", Metrics: map[string]float64{}},
	})

	assert.Equal(t, 7.0, points[0].Total)
	assert.Equal(t, 0.0, points[1].Total)
}

func TestPrepare_MovingAverageOverFullSeries(t *testing.T) {
	series := make([]domain.TimeSeriesPoint, 10)
	for i := range series {
		series[i] = domain.TimeSeriesPoint{
			Timestamp: string(rune('a' + i)),
			Metrics:   map[string]float64{"v": float64(i + 1)},
		}
	}

	got := Prepare(series, PrepareOptions{Mode: domain.ChartModeBar, MaxPoints: 5})

	assert.Equal(t, domain.ChartModeBar, got.Mode)
	assert.Equal(t, []string{"v"}, got.Categories)
	require.True(t, got.Sampled)
	require.Len(t, got.Points, 5)
	// bucket {1,2}: ma7 values 1 and 1.5 average to 1.25, rounded to 1
	assert.Equal(t, 1.0, got.Points[0].MovingAverage)
	assert.Equal(t, "b", got.Points[0].Timestamp)
}

func TestPrepare_Deterministic(t *testing.T) {
	series := []domain.TimeSeriesPoint{
		{Timestamp: "2024-01-01", Metrics: map[string]float64{"x": 1, "y": 2}},
		{Timestamp: "2024-01-02", Metrics: map[string]float64{"x": 3}},
	}

	a := Prepare(series, PrepareOptions{})
	b := Prepare(series, PrepareOptions{})

	assert.Equal(t, a, b)
	assert.Equal(t, domain.ChartModeLine, a.Mode)
	assert.Equal(t, 365, a.MaxPoints)
	assert.False(t, a.Sampled)
	assert.Equal(t, []string{"x", "y"}, a.Categories)
	assert.Equal(t, 3.0, a.Points[0].Total)
	assert.Equal(t, 3.0, a.Points[1].MovingAverage)
}

func TestWithMovingAverage_ConstantSeries(t *testing.T) {
	for _, c := range []float64{0, 3, 1_000_000, 123_456_789} {
		for _, n := range []int{7, 8, 30} {
			values := make([]float64, n)
			for i := range values {
				values[i] = c
			}

			for i, p := range WithMovingAverage(seq(values...), DefaultMovingAverageWindow) {
				assert.Equal(t, c, p.MovingAverage, "c=%v n=%d i=%d", c, n, i)
			}
		}
	}
}

func TestWithMovingAverage_LargeValueLeavesWindow(t *testing.T) {
	values := []float64{1e18}
	for i := 0; i < 20; i++ {
		values = append(values, 5)
	}

	points := WithMovingAverage(seq(values...), DefaultMovingAverageWindow)

	require.Len(t, points, 21)
	for i := DefaultMovingAverageWindow; i < len(points); i++ {
		assert.Equal(t, 5.0, points[i].MovingAverage, "i=%d", i)
	}
}
