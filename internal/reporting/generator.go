package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/lookup"
	"holder-analytics/internal/metrics"
	"holder-analytics/internal/storage"
)

// Generator produces rich-list reports from archived snapshots.
type Generator struct {
	snapshotStore storage.HolderSnapshotStore
	tiers         []int
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(snapshotStore storage.HolderSnapshotStore) *Generator {
	return &Generator{
		snapshotStore: snapshotStore,
		tiers:         DefaultConcentrationTiers,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTiers sets the top-N cutoffs of the concentration table.
func (g *Generator) WithTiers(tiers []int) *Generator {
	g.tiers = tiers
	return g
}

// Generate reports the latest archived snapshot against the one closest to
// lookback before it. topN limits the entry table (0 keeps every holder).
func (g *Generator) Generate(ctx context.Context, lookback time.Duration, topN int) (*RichListReport, error) {
	latest, err := g.snapshotStore.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	baseline, err := ResolveBaseline(ctx, g.snapshotStore, latest.TakenAtMs-lookback.Milliseconds())
	if err != nil {
		return nil, err
	}
	if baseline != nil && baseline.TakenAtMs >= latest.TakenAtMs {
		baseline = nil
	}

	return Build(latest, baseline, topN, g.tiers, g.now()), nil
}

// ResolveBaseline returns the archived snapshot at or before target, the
// earliest one when all are newer, or nil when the archive is empty.
func ResolveBaseline(ctx context.Context, store storage.HolderSnapshotStore, target int64) (*domain.HolderSnapshot, error) {
	times, err := store.ListTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshot times: %w", err)
	}
	at, err := lookup.TimeAt(target, times)
	if errors.Is(err, lookup.ErrNoSnapshots) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap, err := store.GetAtOrBefore(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("load baseline snapshot: %w", err)
	}
	return snap, nil
}

// Build assembles a report from two snapshots. baseline may be nil.
func Build(latest, baseline *domain.HolderSnapshot, topN int, tiers []int, now time.Time) *RichListReport {
	var baseRows []domain.HolderRow
	r := &RichListReport{
		GeneratedAt: now,
		LatestAt:    latest.TakenAtMs,
	}
	if baseline != nil {
		baseRows = baseline.Holders
		r.BaselineAt = baseline.TakenAtMs
		r.HasBaseline = true
	}

	r.Summary = HolderSummary{
		HolderCount:  len(latest.Holders),
		TotalBalance: metrics.TotalBalance(latest.Holders),
	}
	if len(latest.Holders) > 0 {
		for _, n := range tiers {
			r.Concentration = append(r.Concentration, ConcentrationRow{
				TopN:  n,
				Share: metrics.TopNShare(latest.Holders, n),
			})
		}
	}

	r.Entries = metrics.DiffHolders(latest.Holders, baseRows, topN)
	known := make(map[string]struct{}, len(baseRows))
	for _, h := range baseRows {
		known[h.Address] = struct{}{}
	}
	for _, e := range r.Entries {
		if _, ok := known[e.Address]; !ok {
			r.Summary.NewHolders++
		}
	}
	r.Gainers, r.Losers = metrics.Movers(r.Entries)
	return r
}
