package normalization

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"float", 1.5, 1.5, true},
		{"int", 7, 7, true},
		{"json number", json.Number("42.25"), 42.25, true},
		{"numeric string", " 12.5 ", 12.5, true},
		{"empty string", "", 0, false},
		{"dash", "-", 0, false},
		{"text", "abc", 0, false},
		{"nan string", "NaN", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"object", map[string]any{"a": 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetricDisplay(t *testing.T) {
	assert.Equal(t, NotAvailable, Metric{}.Display())
	assert.Equal(t, "0.25", Metric{Value: 0.25, Valid: true}.Display())
}

func TestMetrics_Degraded(t *testing.T) {
	fields := map[string]any{
		"gini":       0.82,
		"volatility": "-",
		"entropy":    nil,
		"phase":      "accumulation",
		"holders": map[string]any{
			"total":  "1200",
			"change": "n/a",
		},
	}

	metrics, degraded := Metrics(fields)

	assert.Equal(t, Metric{Value: 0.82, Valid: true}, metrics["gini"])
	assert.Equal(t, Metric{Value: 1200, Valid: true}, metrics["holders.total"])
	assert.False(t, metrics["volatility"].Valid)
	assert.False(t, metrics["entropy"].Valid)
	_, isMetric := metrics["phase"]
	assert.False(t, isMetric, "text labels are not metrics")
	assert.Equal(t, []string{"entropy", "holders.change", "volatility"}, degraded)
}

func TestMetricOf_Missing(t *testing.T) {
	m := MetricOf(map[string]any{}, "gini")
	assert.False(t, m.Valid)
}

func TestDecodeAny_Blank(t *testing.T) {
	v, err := DecodeAny([]byte("  "))
	assert.NoError(t, err)
	assert.Nil(t, v)
}
