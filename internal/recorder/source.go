package recorder

import (
	"context"

	"holder-analytics/internal/analyticsapi"
	"holder-analytics/internal/domain"
)

// Source fetches the data the recorder archives.
type Source interface {
	// FetchSeries returns the normalized chart series of section.
	FetchSeries(ctx context.Context, section domain.Section, r domain.Range) ([]domain.TimeSeriesPoint, error)

	// FetchRichList returns the latest rich list limited to top holders.
	FetchRichList(ctx context.Context, r domain.Range, top int) (*domain.HolderSnapshot, error)
}

// APISource reads from the analytics API.
type APISource struct {
	Client *analyticsapi.Client
}

// FetchSeries implements Source.
func (s APISource) FetchSeries(ctx context.Context, section domain.Section, r domain.Range) ([]domain.TimeSeriesPoint, error) {
	chart, err := s.Client.Section(section).Chart(ctx, analyticsapi.ChartParams{Range: r})
	if err != nil {
		return nil, err
	}
	return chart.Points, nil
}

// FetchRichList implements Source.
func (s APISource) FetchRichList(ctx context.Context, r domain.Range, top int) (*domain.HolderSnapshot, error) {
	snaps, err := s.Client.RichList().Snapshots(ctx, analyticsapi.ChartParams{Range: r, Top: top})
	if err != nil {
		return nil, err
	}
	return snaps.Latest, nil
}
