package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"holder-analytics/internal/chart"
	"holder-analytics/internal/domain"
)

// HolderEntryColumns is the fixed header of rich-list change exports.
var HolderEntryColumns = []string{
	"rank", "address", "balance", "percentage", "change_absolute", "change_percent",
}

// WriteSeriesCSV writes one row per point: timestamp, one column per category
// in the given order, then total and ma7. A category missing from a point is
// written as 0.
func WriteSeriesCSV(w io.Writer, points []chart.Point, categories []string) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(categories)+3)
	header = append(header, "timestamp")
	header = append(header, categories...)
	header = append(header, "total", "ma7")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write series header: %w", err)
	}

	for _, p := range points {
		row := make([]string, 0, len(header))
		row = append(row, p.Timestamp)
		for _, c := range categories {
			row = append(row, formatFloat(p.Metrics[c]))
		}
		row = append(row, formatFloat(p.Total), formatFloat(p.MovingAverage))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write series row %s: %w", p.Timestamp, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTableCSV writes rows with the given columns. With no columns the
// sorted union of row keys is used. Nested values are written as JSON.
func WriteTableCSV(w io.Writer, rows []map[string]any, columns []string) error {
	if len(columns) == 0 {
		columns = TableColumns(rows)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write table header: %w", err)
	}
	for i, r := range rows {
		record := make([]string, len(columns))
		for j, c := range columns {
			record[j] = formatCell(r[c])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write table row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// TableColumns returns the sorted union of keys across rows.
func TableColumns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// WriteHolderEntriesCSV writes rich-list change rows with HolderEntryColumns.
// An unknown change percent is left empty.
func WriteHolderEntriesCSV(w io.Writer, entries []domain.HolderEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HolderEntryColumns); err != nil {
		return fmt.Errorf("write holder header: %w", err)
	}
	for _, e := range entries {
		changePct := ""
		if e.ChangePercent != nil {
			changePct = formatFloat(*e.ChangePercent)
		}
		record := []string{
			strconv.Itoa(e.Rank),
			e.Address,
			e.Balance.String(),
			formatFloat(e.Percentage),
			e.ChangeAbsolute.String(),
			changePct,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write holder %s: %w", e.Address, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return formatFloat(x)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return cast.ToString(v)
}
