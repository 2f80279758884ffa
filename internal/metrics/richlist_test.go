package metrics

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"holder-analytics/internal/domain"
)

func TestDiffHolders_ChangeAgainstBaseline(t *testing.T) {
	latest := []domain.HolderRow{row("a", 1, 150), row("b", 2, 50)}
	baseline := []domain.HolderRow{row("a", 1, 100), row("b", 2, 80)}

	entries := DiffHolders(latest, baseline, 10)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	a := entries[0]
	if a.Address != "a" || !a.ChangeAbsolute.Equal(decimal.NewFromInt(50)) {
		t.Errorf("unexpected entry for a: %+v", a)
	}
	if a.ChangePercent == nil || math.Abs(*a.ChangePercent-50) > 1e-9 {
		t.Errorf("expected a change percent 50, got %v", a.ChangePercent)
	}
	if math.Abs(a.Percentage-75) > 1e-9 {
		t.Errorf("expected a percentage 75, got %f", a.Percentage)
	}

	b := entries[1]
	if !b.ChangeAbsolute.Equal(decimal.NewFromInt(-30)) {
		t.Errorf("expected b change -30, got %s", b.ChangeAbsolute)
	}
	if b.ChangePercent == nil || math.Abs(*b.ChangePercent+37.5) > 1e-9 {
		t.Errorf("expected b change percent -37.5, got %v", b.ChangePercent)
	}
}

func TestDiffHolders_NewAddress(t *testing.T) {
	latest := []domain.HolderRow{row("new", 1, 40)}

	entries := DiffHolders(latest, nil, 0)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].ChangeAbsolute.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected change equal to balance, got %s", entries[0].ChangeAbsolute)
	}
	if entries[0].ChangePercent != nil {
		t.Errorf("expected nil change percent, got %f", *entries[0].ChangePercent)
	}
}

func TestDiffHolders_ZeroBaselineBalance(t *testing.T) {
	entries := DiffHolders(
		[]domain.HolderRow{row("a", 1, 10)},
		[]domain.HolderRow{row("a", 1, 0)},
		0,
	)

	if entries[0].ChangePercent != nil {
		t.Errorf("expected nil change percent for zero baseline, got %f", *entries[0].ChangePercent)
	}
	if !entries[0].ChangeAbsolute.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected change 10, got %s", entries[0].ChangeAbsolute)
	}
}

func TestDiffHolders_TopNAndOwnPercentage(t *testing.T) {
	pct := 12.5
	latest := []domain.HolderRow{
		row("c", 3, 10),
		{Address: "a", Rank: 1, Balance: decimal.NewFromInt(60), Percentage: &pct},
		row("b", 2, 30),
	}

	entries := DiffHolders(latest, nil, 2)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Address != "a" || entries[1].Address != "b" {
		t.Errorf("expected rank order a,b got %s,%s", entries[0].Address, entries[1].Address)
	}
	if entries[0].Percentage != 12.5 {
		t.Errorf("expected own percentage 12.5, got %f", entries[0].Percentage)
	}
	// Fallback share uses the full latest total (100), not just the top N
	if math.Abs(entries[1].Percentage-30) > 1e-9 {
		t.Errorf("expected derived percentage 30, got %f", entries[1].Percentage)
	}
}

func TestMovers(t *testing.T) {
	entries := DiffHolders(
		[]domain.HolderRow{row("a", 1, 150), row("b", 2, 50), row("c", 3, 20), row("d", 4, 5)},
		[]domain.HolderRow{row("a", 1, 100), row("b", 2, 80), row("c", 3, 20), row("d", 4, 1)},
		0,
	)

	gainers, losers := Movers(entries)

	if len(gainers) != 2 || gainers[0].Address != "a" || gainers[1].Address != "d" {
		t.Errorf("unexpected gainers: %+v", gainers)
	}
	if len(losers) != 1 || losers[0].Address != "b" {
		t.Errorf("unexpected losers: %+v", losers)
	}
}
