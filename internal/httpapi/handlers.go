package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"holder-analytics/internal/analyticsapi"
	"holder-analytics/internal/chart"
	"holder-analytics/internal/domain"
	"holder-analytics/internal/idhash"
	"holder-analytics/internal/lookup"
	"holder-analytics/internal/normalization"
	"holder-analytics/internal/observability"
	"holder-analytics/internal/querycache"
	"holder-analytics/internal/reporting"
	"holder-analytics/internal/storage"
	"holder-analytics/internal/tablestate"
)

// Baseline sources reported by /rich-list/changes.
const (
	BaselineAPI     = "api"
	BaselineArchive = "archive"
	BaselineNone    = "none"
)

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) status(c *gin.Context) {
	data := gin.H{
		"uptime_seconds": int64(s.opts.Now().Sub(s.started).Seconds()),
		"started_at":     s.started,
	}
	if s.opts.Recorder != nil {
		data["recorder"] = s.opts.Recorder.Status()
	}
	if s.opts.Cache != nil {
		data["cache_entries"] = s.opts.Cache.Len()
	}
	if s.opts.Hub != nil {
		data["ws_clients"] = s.opts.Hub.ClientCount()
	}
	JSON(c, nil, data)
}

// cached resolves key through the query cache, or calls fn directly when
// no cache is configured.
func cached[T any](ctx context.Context, s *server, key string, fn func(context.Context) (T, error)) (T, error) {
	if s.opts.Cache == nil {
		return fn(ctx)
	}
	return querycache.Fetch(ctx, s.opts.Cache, key, fn)
}

func (s *server) widget(c *gin.Context) {
	s.fields(c, domain.ResourceWidget)
}

func (s *server) stats(c *gin.Context) {
	s.fields(c, domain.ResourceStats)
}

func (s *server) fields(c *gin.Context, resource domain.Resource) {
	section, err := sectionParam(c)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	var q rangeQuery
	if err := bind(c, &q); err != nil {
		JSON(c, err, nil)
		return
	}
	r := q.value()
	key := idhash.ComputeQueryKey(string(section), string(resource), map[string]string{"range": r.String()})
	f, err := cached(c.Request.Context(), s, key, func(ctx context.Context) (*analyticsapi.Fields, error) {
		sc := s.opts.API.Section(section)
		if resource == domain.ResourceStats {
			return sc.Stats(ctx, analyticsapi.StatsParams{Range: r})
		}
		return sc.Widget(ctx, analyticsapi.WidgetParams{Range: r})
	})
	if err != nil {
		JSON(c, err, nil)
		return
	}

	display := make(map[string]string, len(f.Metrics))
	for k, m := range f.Metrics {
		display[k] = m.Display()
	}
	JSON(c, nil, gin.H{
		"section":  section,
		"range":    r,
		"metrics":  f.Metrics,
		"display":  display,
		"degraded": f.Degraded,
		"meta":     f.Meta,
		"empty":    len(f.Metrics) == 0,
	})
}

func (q chartQuery) apiParams(top int) analyticsapi.ChartParams {
	if q.Top > 0 {
		top = q.Top
	}
	return analyticsapi.ChartParams{
		Range:     q.value(),
		StartDate: parseDate(q.StartDate),
		EndDate:   parseDate(q.EndDate),
		Top:       top,
	}
}

func chartKey(section domain.Section, p analyticsapi.ChartParams) string {
	params := map[string]string{"range": p.Range.String()}
	if !p.StartDate.IsZero() {
		params["startDate"] = p.StartDate.Format(tablestate.DateLayout)
	}
	if !p.EndDate.IsZero() {
		params["endDate"] = p.EndDate.Format(tablestate.DateLayout)
	}
	if p.Top > 0 {
		params["top"] = strconv.Itoa(p.Top)
	}
	return idhash.ComputeQueryKey(string(section), string(domain.ResourceChart), params)
}

func (s *server) fetchChart(ctx context.Context, section domain.Section, p analyticsapi.ChartParams) (*analyticsapi.Chart, error) {
	return cached(ctx, s, chartKey(section, p), func(ctx context.Context) (*analyticsapi.Chart, error) {
		return s.opts.API.Section(section).Chart(ctx, p)
	})
}

func (s *server) fetchSnapshots(ctx context.Context, p analyticsapi.ChartParams) (*analyticsapi.Snapshots, error) {
	return cached(ctx, s, chartKey(domain.SectionRichList, p), func(ctx context.Context) (*analyticsapi.Snapshots, error) {
		return s.opts.API.RichList().Snapshots(ctx, p)
	})
}

func (s *server) chart(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	var q chartQuery
	if err := bind(c, &q); err != nil {
		JSON(c, err, nil)
		return
	}
	ctx := c.Request.Context()

	if section == domain.SectionRichList {
		snaps, err := s.fetchSnapshots(ctx, q.apiParams(s.opts.Chart.TopN))
		if err != nil {
			JSON(c, err, nil)
			return
		}
		JSON(c, nil, gin.H{
			"section":  section,
			"latest":   snaps.Latest,
			"baseline": snaps.Baseline,
			"dropped":  snaps.Dropped,
			"empty":    len(snaps.Latest.Holders) == 0,
		})
		return
	}

	ch, err := s.fetchChart(ctx, section, q.apiParams(0))
	if err != nil {
		JSON(c, err, nil)
		return
	}
	mode := s.opts.Chart.Mode
	if q.Mode != "" {
		mode = domain.ChartMode(q.Mode)
	}
	maxPoints := s.opts.Chart.MaxPoints
	if q.MaxPoints > 0 {
		maxPoints = q.MaxPoints
	}
	prepared := chart.Prepare(ch.Points, chart.PrepareOptions{Mode: mode, MaxPoints: maxPoints})
	if prepared.Sampled {
		observability.RecordChartSampled(string(section), string(mode))
	}
	JSON(c, nil, gin.H{
		"section":    section,
		"range":      q.value(),
		"chart":      prepared,
		"dropped":    ch.Stats.Dropped + ch.Stats.Unparseable,
		"duplicates": ch.Stats.Duplicates,
		"meta":       ch.Meta,
		"empty":      len(prepared.Points) == 0,
	})
}

// tableFetcher serves table pages through the query cache.
func (s *server) tableFetcher(section domain.Section) tablestate.Fetcher {
	api := s.opts.API.Section(section)
	return tablestate.FetcherFunc(func(ctx context.Context, q tablestate.Query) (tablestate.Result, error) {
		key := idhash.ComputeQueryKey(string(section), string(domain.ResourceTable), q.Params())
		return cached(ctx, s, key, func(ctx context.Context) (tablestate.Result, error) {
			return api.FetchTable(ctx, q)
		})
	})
}

func (s *server) table(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	var q tableQuery
	if err := bind(c, &q); err != nil {
		JSON(c, err, nil)
		return
	}
	st := q.tableState()
	view := tablestate.NewViewWithState(s.tableFetcher(section), st)
	page, err := view.Load(c.Request.Context())
	if err != nil {
		JSON(c, err, nil)
		return
	}
	JSON(c, nil, gin.H{
		"section":    section,
		"rows":       page.Rows,
		"pagination": page.Pagination,
		"sort":       gin.H{"field": st.SortField, "order": st.SortOrder},
		"dropped":    page.Dropped,
		"query_key":  tablestate.QueryKey(section, domain.ResourceTable, st),
		"empty":      len(page.Rows) == 0,
	})
}

func (s *server) richListChanges(c *gin.Context) {
	var q changesQuery
	if err := bind(c, &q); err != nil {
		JSON(c, err, nil)
		return
	}
	lookback, hasLookback := q.value().Lookback()
	if q.Lookback != "" {
		d, err := time.ParseDuration(q.Lookback)
		if err != nil || d <= 0 {
			JSON(c, fmt.Errorf("%w: lookback must be a positive duration", ErrInvalidParam), nil)
			return
		}
		lookback, hasLookback = d, true
	}
	top := q.Top
	if top == 0 {
		top = s.opts.Chart.TopN
	}

	ctx := c.Request.Context()
	snaps, err := s.fetchSnapshots(ctx, analyticsapi.ChartParams{Range: q.value(), Top: top})
	if err != nil {
		JSON(c, err, nil)
		return
	}
	latest := *snaps.Latest
	if latest.TakenAtMs == 0 {
		latest.TakenAtMs = s.opts.Now().UnixMilli()
	}

	baseline, source := snaps.Baseline, BaselineAPI
	if baseline == nil {
		source = BaselineNone
		if s.opts.Snapshots != nil && hasLookback {
			baseline, err = reporting.ResolveBaseline(ctx, s.opts.Snapshots, latest.TakenAtMs-lookback.Milliseconds())
			if err != nil {
				JSON(c, err, nil)
				return
			}
			if baseline != nil && baseline.TakenAtMs >= latest.TakenAtMs {
				baseline = nil
			}
			if baseline != nil {
				source = BaselineArchive
			}
		}
	}

	report := reporting.Build(&latest, baseline, top, reporting.DefaultConcentrationTiers, s.opts.Now())
	f := reporting.FormatJSON
	if q.Format != "" {
		f = formatOf(q.Format)
	}
	switch f {
	case reporting.FormatCSV:
		s.attachment(c, domain.SectionRichList, "changes", reporting.FormatCSV, func(w io.Writer) error {
			return reporting.WriteHolderEntriesCSV(w, report.Entries)
		})
	case reporting.FormatMarkdown:
		s.attachment(c, domain.SectionRichList, "changes", reporting.FormatMarkdown, func(w io.Writer) error {
			_, err := io.WriteString(w, reporting.RenderRichListMarkdown(report))
			return err
		})
	default:
		JSON(c, nil, gin.H{
			"report":          report,
			"baseline_source": source,
			"dropped":         snaps.Dropped,
			"empty":           len(report.Entries) == 0,
		})
	}
}

func (s *server) balancesLookup(c *gin.Context) {
	var addresses []string
	for _, v := range c.QueryArray("address") {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addresses = append(addresses, a)
			}
		}
	}
	if len(addresses) == 0 {
		JSON(c, fmt.Errorf("%w: address is required", ErrInvalidParam), nil)
		return
	}
	rows, err := s.opts.API.Balances().Lookup(c.Request.Context(), addresses)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	JSON(c, nil, gin.H{"balances": rows, "empty": len(rows) == 0})
}

func (s *server) archive(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	var q archiveQuery
	if err := bind(c, &q); err != nil {
		JSON(c, err, nil)
		return
	}
	if s.opts.Series == nil {
		JSON(c, fmt.Errorf("series archive: %w", storage.ErrNotFound), nil)
		return
	}
	at, err := parseInstant(q.At)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	seriesID := domain.SeriesID(section, q.value())
	points, err := s.opts.Series.GetBySeriesID(c.Request.Context(), seriesID)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	p, err := lookup.PointAt(at, points)
	if err != nil || p == nil {
		JSON(c, fmt.Errorf("series %s at %d: %w", seriesID, at, storage.ErrNotFound), nil)
		return
	}
	JSON(c, nil, gin.H{
		"series_id":    seriesID,
		"timestamp":    p.Timestamp,
		"timestamp_ms": p.TimestampMs,
		"metrics":      p.Metrics,
	})
}

func (s *server) exportTable(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	var q tableQuery
	if err := bind(c, &q); err != nil {
		JSON(c, err, nil)
		return
	}
	st := q.tableState()
	if q.Limit == 0 {
		st.PageSize = exportPageSize
	}
	view := tablestate.NewViewWithState(s.tableFetcher(section), st)

	var rows []map[string]any
	pages := 0
	err = view.Walk(c.Request.Context(), func(p domain.TablePage) error {
		rows = append(rows, p.Rows...)
		pages++
		if pages >= s.opts.MaxExportPages && p.Pagination.HasNext {
			return errExportTruncated
		}
		return nil
	})
	truncated := errors.Is(err, errExportTruncated)
	if err != nil && !truncated {
		JSON(c, err, nil)
		return
	}
	if truncated {
		s.log.Warn("table export truncated",
			zap.String("section", string(section)),
			zap.Int("pages", pages),
			zap.Int("rows", len(rows)))
		c.Header("X-Export-Truncated", "true")
	}

	f := formatOf(q.Format)
	if f == reporting.FormatMarkdown {
		f = reporting.FormatCSV
	}
	s.attachment(c, section, string(domain.ResourceTable), f, func(w io.Writer) error {
		if f == reporting.FormatJSON {
			if rows == nil {
				rows = []map[string]any{}
			}
			return reporting.WriteJSON(w, rows)
		}
		return reporting.WriteTableCSV(w, rows, reporting.TableColumns(rows))
	})
}

var errExportTruncated = errors.New("export page limit reached")

func (s *server) exportChart(c *gin.Context) {
	section, err := sectionParam(c)
	if err != nil {
		JSON(c, err, nil)
		return
	}
	if section == domain.SectionRichList {
		JSON(c, fmt.Errorf("%w: use /rich-list/changes?format=csv", ErrInvalidParam), nil)
		return
	}
	var q chartQuery
	if err := bind(c, &q); err != nil {
		JSON(c, err, nil)
		return
	}
	ch, err := s.fetchChart(c.Request.Context(), section, q.apiParams(0))
	if err != nil {
		JSON(c, err, nil)
		return
	}
	points := chart.WithMovingAverage(chart.WithTotals(chart.FromSeries(ch.Points)), chart.DefaultMovingAverageWindow)
	categories := normalization.Categories(ch.Points)

	f := formatOf(q.Format)
	if f == reporting.FormatMarkdown {
		f = reporting.FormatCSV
	}
	s.attachment(c, section, string(domain.ResourceChart), f, func(w io.Writer) error {
		if f == reporting.FormatJSON {
			return reporting.WriteJSON(w, points)
		}
		return reporting.WriteSeriesCSV(w, points, categories)
	})
}

// attachment renders a download. The body is buffered so a render failure
// still produces an envelope.
func (s *server) attachment(c *gin.Context, section domain.Section, resource string, f reporting.Format, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		JSON(c, fmt.Errorf("render %s export: %w", f, err), nil)
		return
	}
	name := reporting.FileName(section, resource, f, s.opts.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}
