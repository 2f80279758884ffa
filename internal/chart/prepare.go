package chart

import (
	"sort"

	"holder-analytics/internal/domain"
)

// PrepareOptions controls chart preparation.
type PrepareOptions struct {
	Mode      domain.ChartMode
	MaxPoints int // overrides TargetPoints when > 0
	Window    int // moving average window, DefaultMovingAverageWindow when 0
}

// Chart is a render-ready series.
type Chart struct {
	Mode       domain.ChartMode `json:"mode"`
	Categories []string         `json:"categories"`
	Downsampled
}

// Prepare derives totals and the moving average over the full series, then
// downsamples for the rendering mode. It is pure: identical input and
// options yield identical output.
func Prepare(series []domain.TimeSeriesPoint, opts PrepareOptions) Chart {
	mode := opts.Mode
	if mode == "" {
		mode = domain.ChartModeLine
	}
	window := opts.Window
	if window == 0 {
		window = DefaultMovingAverageWindow
	}
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = TargetPoints(len(series), mode)
	}

	points := WithMovingAverage(WithTotals(FromSeries(series)), window)
	return Chart{
		Mode:        mode,
		Categories:  categories(series),
		Downsampled: Downsample(points, maxPoints),
	}
}

func categories(series []domain.TimeSeriesPoint) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, p := range series {
		for k := range p.Metrics {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
