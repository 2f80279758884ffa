package normalization

import (
	"strings"

	"github.com/shopspring/decimal"

	"holder-analytics/internal/domain"
)

// Holder payload field names.
const (
	AddressField    = "address"
	RankField       = "rank"
	BalanceField    = "balance"
	PercentageField = "percentage"
)

// Decimal coerces a payload value into a decimal without passing through
// float64 for json.Number and string inputs.
func Decimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil, bool, map[string]any, []any:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	}
	if s, ok := toString(v); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err == nil {
			return d, true
		}
	}
	f, ok := Number(v)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// HolderRows normalizes a holder collection (array or keyed by address) into
// rows sorted by effective rank. Records without a usable balance are dropped
// and counted. A scalar keyed entry {"addr": "12.5"} is read as a balance.
func HolderRows(raw any) ([]domain.HolderRow, Stats) {
	records, stats := normalizeCollection(raw, AddressField)
	rows := make([]domain.HolderRow, 0, len(records))
	for _, rec := range records {
		row, ok := HolderRowFromRecord(rec)
		if !ok {
			stats.Dropped++
			continue
		}
		rows = append(rows, row)
	}
	SortHolders(rows)
	return rows, stats
}

// HolderRowFromRecord converts one normalized record. A missing or
// non-numeric rank is treated as unranked (0).
func HolderRowFromRecord(rec Record) (domain.HolderRow, bool) {
	rawBalance, ok := rec[BalanceField]
	if !ok {
		rawBalance = rec[ValueField]
	}
	balance, ok := Decimal(rawBalance)
	if !ok {
		return domain.HolderRow{}, false
	}

	row := domain.HolderRow{
		Address: rec.ID(AddressField),
		Balance: balance,
	}
	if rank, ok := Int(rec[RankField]); ok && rank > 0 {
		row.Rank = rank
	}
	if pct, ok := Number(rec[PercentageField]); ok {
		row.Percentage = &pct
	}
	return row, true
}
