package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"holder-analytics/internal/chart"
	"holder-analytics/internal/domain"
	"holder-analytics/internal/storage/memory"
)

func row(addr string, rank int, balance string) domain.HolderRow {
	return domain.HolderRow{Address: addr, Rank: rank, Balance: decimal.RequireFromString(balance)}
}

func setupSnapshots(t *testing.T) *memory.HolderSnapshotStore {
	t.Helper()
	ctx := context.Background()
	store := memory.NewHolderSnapshotStore()

	snaps := []*domain.HolderSnapshot{
		{TakenAtMs: 1_000, Holders: []domain.HolderRow{row("a", 1, "50"), row("b", 2, "50")}},
		{TakenAtMs: 86_401_000, Holders: []domain.HolderRow{row("a", 1, "80"), row("b", 2, "40"), row("c", 0, "10")}},
	}
	for _, s := range snaps {
		if err := store.Insert(ctx, s); err != nil {
			t.Fatalf("Insert %d: %v", s.TakenAtMs, err)
		}
	}
	return store
}

func TestGenerate(t *testing.T) {
	fixedTime := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	gen := NewGenerator(setupSnapshots(t)).WithClock(func() time.Time { return fixedTime })

	report, err := gen.Generate(context.Background(), 24*time.Hour, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixedTime) {
		t.Errorf("expected GeneratedAt %v, got %v", fixedTime, report.GeneratedAt)
	}
	if !report.HasBaseline || report.BaselineAt != 1_000 {
		t.Errorf("expected baseline at 1000, got %d (has=%v)", report.BaselineAt, report.HasBaseline)
	}
	if report.Summary.HolderCount != 3 {
		t.Errorf("expected 3 holders, got %d", report.Summary.HolderCount)
	}
	if report.Summary.TotalBalance.String() != "130" {
		t.Errorf("expected total 130, got %s", report.Summary.TotalBalance)
	}
	if report.Summary.NewHolders != 1 {
		t.Errorf("expected 1 new holder, got %d", report.Summary.NewHolders)
	}
	if len(report.Entries) != 3 || report.Entries[2].Address != "c" {
		t.Fatalf("expected unranked holder last, got %+v", report.Entries)
	}
	if pct := report.Entries[0].ChangePercent; pct == nil || *pct != 60 {
		t.Errorf("expected +60%% for a, got %v", pct)
	}
	if len(report.Gainers) != 2 || report.Gainers[0].Address != "a" {
		t.Errorf("expected gainers [a c], got %+v", report.Gainers)
	}
	if len(report.Losers) != 1 || report.Losers[0].Address != "b" {
		t.Errorf("expected losers [b], got %+v", report.Losers)
	}
}

func TestGenerate_SingleSnapshotHasNoBaseline(t *testing.T) {
	store := memory.NewHolderSnapshotStore()
	if err := store.Insert(context.Background(), &domain.HolderSnapshot{
		TakenAtMs: 5_000, Holders: []domain.HolderRow{row("a", 1, "1")},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	report, err := NewGenerator(store).Generate(context.Background(), time.Hour, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.HasBaseline {
		t.Error("expected no baseline")
	}
	if report.Summary.NewHolders != 1 || report.Entries[0].ChangePercent != nil {
		t.Errorf("expected holder reported as new, got %+v", report.Entries[0])
	}
}

func TestGenerate_EmptyArchive(t *testing.T) {
	_, err := NewGenerator(memory.NewHolderSnapshotStore()).Generate(context.Background(), time.Hour, 0)
	if err == nil {
		t.Fatal("expected error for empty archive")
	}
}

func TestRenderRichListMarkdown(t *testing.T) {
	report, err := NewGenerator(setupSnapshots(t)).Generate(context.Background(), 24*time.Hour, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	md := RenderRichListMarkdown(report)

	for _, want := range []string{
		"# Rich List Report",
		"## Summary",
		"| Holders | 3 |",
		"## Concentration",
		"| 1 | 61.54 |",
		"## Top Gainers",
		"| - | c | 10 |",
		"new |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestWriteSeriesCSV(t *testing.T) {
	points := []chart.Point{
		{Timestamp: "2026-01-01", Metrics: map[string]float64{"a": 1.5}, Total: 1.5, MovingAverage: 1.5},
		{Timestamp: "2026-01-02", Metrics: map[string]float64{"a": 2, "b": 3}, Total: 5, MovingAverage: 3.25},
	}
	var buf bytes.Buffer
	if err := WriteSeriesCSV(&buf, points, []string{"a", "b"}); err != nil {
		t.Fatalf("WriteSeriesCSV: %v", err)
	}

	want := "timestamp,a,b,total,ma7\n2026-01-01,1.5,0,1.5,1.5\n2026-01-02,2,3,5,3.25\n"
	if buf.String() != want {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}
}

func TestWriteTableCSV(t *testing.T) {
	rows := []map[string]any{
		{"address": "a,1", "balance": "10", "tags": []any{"x"}},
		{"address": "b", "count": 2.0},
	}
	var buf bytes.Buffer
	if err := WriteTableCSV(&buf, rows, nil); err != nil {
		t.Fatalf("WriteTableCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if strings.Join(records[0], "|") != "address|balance|count|tags" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][0] != "a,1" || records[1][3] != `["x"]` {
		t.Errorf("unexpected first row %v", records[1])
	}
	if records[2][2] != "2" || records[2][1] != "" {
		t.Errorf("unexpected second row %v", records[2])
	}
}

func TestWriteHolderEntriesCSV(t *testing.T) {
	pct := -12.5
	entries := []domain.HolderEntry{
		{Address: "a", Rank: 1, Balance: decimal.RequireFromString("70"), Percentage: 70,
			ChangeAbsolute: decimal.RequireFromString("-10"), ChangePercent: &pct},
		{Address: "n", Balance: decimal.RequireFromString("5"), Percentage: 5,
			ChangeAbsolute: decimal.RequireFromString("5")},
	}
	var buf bytes.Buffer
	if err := WriteHolderEntriesCSV(&buf, entries); err != nil {
		t.Fatalf("WriteHolderEntriesCSV: %v", err)
	}

	want := "rank,address,balance,percentage,change_absolute,change_percent\n" +
		"1,a,70,70,-10,-12.5\n" +
		"0,n,5,5,5,\n"
	if buf.String() != want {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if buf.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("unexpected json %q", buf.String())
	}
}

func TestFileNameAndFormat(t *testing.T) {
	now := time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC)
	if got := FileName(domain.SectionHolders, "table", FormatCSV, now); got != "holders-table-20261014.csv" {
		t.Errorf("unexpected file name %s", got)
	}
	if f, ok := ParseFormat("JSON"); !ok || f != FormatJSON {
		t.Errorf("expected json, got %s %v", f, ok)
	}
	if _, ok := ParseFormat("xlsx"); ok {
		t.Error("expected xlsx to be rejected")
	}
}
