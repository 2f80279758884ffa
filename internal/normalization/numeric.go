package normalization

import (
	"bytes"
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// DecodeAny decodes a JSON document keeping numbers as json.Number so large
// balances survive until they reach a decimal field.
func DecodeAny(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Number coerces a loosely typed payload value into float64.
// Numeric strings ("12.5", " 7 ") are accepted; booleans, empty strings,
// objects and nil are not.
func Number(v any) (float64, bool) {
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case nil, bool, map[string]any, []any:
		return 0, false
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(s)
		return f, err == nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int coerces v into int, truncating floats.
func Int(v any) (int, bool) {
	f, ok := Number(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case map[string]any, []any:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// Metric is a numeric stats field that may be missing upstream.
type Metric struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// NotAvailable is the display text of an invalid Metric.
const NotAvailable = "N/A"

// Display renders the metric, substituting NotAvailable when invalid.
func (m Metric) Display() string {
	if !m.Valid {
		return NotAvailable
	}
	return cast.ToString(m.Value)
}

// MetricOf reads fields[name] as a Metric.
func MetricOf(fields map[string]any, name string) Metric {
	v, ok := fields[name]
	if !ok {
		return Metric{}
	}
	f, ok := Number(v)
	return Metric{Value: f, Valid: ok}
}

// Metrics converts every field of a stats payload to a Metric. Non-numeric
// scalar fields are reported in degraded; nested objects are flattened with
// dotted keys.
func Metrics(fields map[string]any) (metrics map[string]Metric, degraded []string) {
	metrics = make(map[string]Metric)
	flattenMetrics("", fields, metrics, &degraded)
	sort.Strings(degraded)
	return metrics, degraded
}

func flattenMetrics(prefix string, fields map[string]any, out map[string]Metric, degraded *[]string) {
	for k, v := range fields {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenMetrics(key, nested, out, degraded)
			continue
		}
		if text, isText := v.(string); isText {
			if _, ok := Number(text); !ok && !isPlaceholder(text) {
				// labels such as "phase": "accumulation" are not metrics
				continue
			}
		}
		f, ok := Number(v)
		out[key] = Metric{Value: f, Valid: ok}
		if !ok {
			*degraded = append(*degraded, key)
		}
	}
}

// isPlaceholder reports upstream stand-ins for a missing number.
func isPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "n/a", "na", "nan", "null", "none":
		return true
	}
	return false
}
