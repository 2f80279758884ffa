package analyticsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/normalization"
	"holder-analytics/internal/observability"
	"holder-analytics/internal/tablestate"
)

// IDField returns the identifier field of table rows in a section.
func IDField(section domain.Section) string {
	switch section {
	case domain.SectionDistribution:
		return "bucket"
	case domain.SectionStaking:
		return "validator"
	default:
		return normalization.AddressField
	}
}

// SectionClient calls the endpoints of one section.
type SectionClient struct {
	client  *Client
	section domain.Section
}

// Section returns the wrapper for section.
func (c *Client) Section(section domain.Section) *SectionClient {
	return &SectionClient{client: c, section: section}
}

// Name returns the section name.
func (s *SectionClient) Name() domain.Section {
	return s.section
}

// Fields is a widget or stats payload with numeric fields resolved.
type Fields struct {
	Section  domain.Section                  `json:"section"`
	Raw      map[string]any                  `json:"raw"`
	Metrics  map[string]normalization.Metric `json:"metrics"`
	Degraded []string                        `json:"degraded,omitempty"`
	Meta     map[string]any                  `json:"meta,omitempty"`
}

// Chart is a normalized chart payload.
type Chart struct {
	Section domain.Section            `json:"section"`
	Points  []domain.TimeSeriesPoint  `json:"points"`
	Stats   normalization.SeriesStats `json:"-"`
	Meta    map[string]any            `json:"meta,omitempty"`
}

// Table is one normalized table page as returned by the API.
type Table struct {
	Section domain.Section   `json:"section"`
	Rows    []map[string]any `json:"rows"`
	Meta    domain.PageMeta  `json:"meta"`
	Dropped int              `json:"dropped,omitempty"`
}

// Widget fetches /v3/<section>/widget.
func (s *SectionClient) Widget(ctx context.Context, p WidgetParams) (*Fields, error) {
	return s.fields(ctx, domain.ResourceWidget, p.values())
}

// Stats fetches /v3/<section>/stats.
func (s *SectionClient) Stats(ctx context.Context, p StatsParams) (*Fields, error) {
	return s.fields(ctx, domain.ResourceStats, p.values())
}

func (s *SectionClient) fields(ctx context.Context, resource domain.Resource, query url.Values) (*Fields, error) {
	env, err := s.client.get(ctx, s.section, resource, query)
	if err != nil {
		return nil, err
	}
	obj, ok := env[string(resource)].(map[string]any)
	if !ok {
		return nil, malformed(s.section, resource, "%s is not an object", resource)
	}
	metrics, degraded := normalization.Metrics(obj)
	observability.RecordDegraded(string(s.section), degraded)
	return &Fields{
		Section:  s.section,
		Raw:      obj,
		Metrics:  metrics,
		Degraded: degraded,
		Meta:     env.meta(),
	}, nil
}

// Chart fetches /v3/<section>/chart and normalizes its series. The points may
// sit under chart.points or be the chart value itself.
func (s *SectionClient) Chart(ctx context.Context, p ChartParams) (*Chart, error) {
	env, err := s.client.get(ctx, s.section, domain.ResourceChart, p.values())
	if err != nil {
		return nil, err
	}
	raw := env[string(domain.ResourceChart)]
	source := raw
	if obj, ok := raw.(map[string]any); ok {
		if pts, ok := obj["points"]; ok {
			source = pts
		}
	}
	points, stats := normalization.NormalizeSeries(source)
	observability.RecordDropped(string(s.section), string(domain.ResourceChart), stats.Dropped+stats.Unparseable)
	observability.RecordDuplicates(string(s.section), stats.Duplicates)
	return &Chart{
		Section: s.section,
		Points:  points,
		Stats:   stats,
		Meta:    env.meta(),
	}, nil
}

// Table fetches /v3/<section>/table. Rows may sit under table.rows or be the
// table value itself, as an array or keyed by identifier. Pagination is read
// from meta, falling back to table.pagination.
func (s *SectionClient) Table(ctx context.Context, p TableParams) (*Table, error) {
	env, err := s.client.get(ctx, s.section, domain.ResourceTable, p.values())
	if err != nil {
		return nil, err
	}
	raw := env[string(domain.ResourceTable)]
	source := raw
	metaBlock := env.meta()
	if obj, ok := raw.(map[string]any); ok {
		if rows, ok := obj["rows"]; ok {
			source = rows
			if metaBlock == nil {
				metaBlock, _ = obj["pagination"].(map[string]any)
			}
		}
	}
	records, stats := normalization.NormalizeCollectionStats(source, IDField(s.section))
	observability.RecordDropped(string(s.section), string(domain.ResourceTable), stats.Dropped)
	return &Table{
		Section: s.section,
		Rows:    normalization.Rows(records),
		Meta:    pageMeta(metaBlock),
		Dropped: stats.Dropped,
	}, nil
}

// FetchTable implements tablestate.Fetcher.
func (s *SectionClient) FetchTable(ctx context.Context, q tablestate.Query) (tablestate.Result, error) {
	p := TableParams{
		Range:     q.Range,
		Page:      q.Page,
		Limit:     q.PageSize,
		SortBy:    q.SortField,
		SortOrder: q.SortOrder,
	}
	var err error
	if p.StartDate, err = parseDate(q.StartDate); err != nil {
		return tablestate.Result{}, err
	}
	if p.EndDate, err = parseDate(q.EndDate); err != nil {
		return tablestate.Result{}, err
	}
	t, err := s.Table(ctx, p)
	if err != nil {
		return tablestate.Result{}, err
	}
	return tablestate.Result{Rows: t.Rows, Meta: t.Meta, Dropped: t.Dropped}, nil
}

// pageMeta reads a pagination block. Absent or non-numeric fields stay nil.
func pageMeta(m map[string]any) domain.PageMeta {
	var meta domain.PageMeta
	if m == nil {
		return meta
	}
	intField := func(name string) *int {
		if v, ok := normalization.Int(m[name]); ok {
			return &v
		}
		return nil
	}
	boolField := func(name string) *bool {
		if v, ok := m[name].(bool); ok {
			return &v
		}
		return nil
	}
	meta.Total = intField("total")
	meta.Page = intField("page")
	meta.Limit = intField("limit")
	meta.TotalPages = intField("totalPages")
	meta.HasNext = boolField("hasNext")
	meta.HasPrev = boolField("hasPrev")
	return meta
}

func malformed(section domain.Section, resource domain.Resource, format string, args ...any) error {
	return &APIError{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("%s/%s/%s", APIPrefix, section, resource),
		Message: fmt.Sprintf(format, args...),
		Err:     ErrMalformedResponse,
	}
}
