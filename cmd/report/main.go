// Package main exports dashboard data to files: table pages (walked to the
// end), full resolution chart series and the rich-list change report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"holder-analytics/internal/analyticsapi"
	"holder-analytics/internal/chart"
	"holder-analytics/internal/config"
	"holder-analytics/internal/domain"
	"holder-analytics/internal/logging"
	"holder-analytics/internal/normalization"
	"holder-analytics/internal/reporting"
	pgstore "holder-analytics/internal/storage/postgres"
	"holder-analytics/internal/tablestate"
)

// Export kinds.
const (
	kindTable   = "table"
	kindChart   = "chart"
	kindChanges = "changes"
)

type options struct {
	outputDir string
	kind      string
	section   string
	rng       string
	format    string
	lookback  time.Duration
	top       int
	pageSize  int
}

func main() {
	var o options
	cfg, err := config.Load("report", os.Args[1:], func(fs *flag.FlagSet) {
		fs.StringVar(&o.outputDir, "output-dir", "output", "Output directory for generated files")
		fs.StringVar(&o.kind, "kind", kindChanges, "Export kind (table, chart, changes)")
		fs.StringVar(&o.section, "section", string(domain.SectionHolders), "Section to export (table, chart)")
		fs.StringVar(&o.rng, "range", string(domain.DefaultRange), "Range selector")
		fs.StringVar(&o.format, "format", "", "Output format (csv, json, md); md only for changes")
		fs.DurationVar(&o.lookback, "lookback", 24*time.Hour, "Archive baseline lookback for changes")
		fs.IntVar(&o.top, "top", 100, "Rich-list entries (changes)")
		fs.IntVar(&o.pageSize, "page-size", tablestate.MaxPageSize, "Rows per table request")
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx := context.Background()
	api := analyticsapi.NewClient(cfg.API.BaseURL,
		analyticsapi.WithTimeout(cfg.API.Timeout),
		analyticsapi.WithBearerToken(cfg.API.Token),
		analyticsapi.WithAPIKey(cfg.API.Key),
		analyticsapi.WithLogger(logger),
	)

	path, err := export(ctx, api, cfg, o, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated: %s\n", path)
}

func export(ctx context.Context, api *analyticsapi.Client, cfg *config.Config, o options, logger *zap.Logger) (string, error) {
	section := domain.Section(o.section)
	if o.kind == kindChanges {
		section = domain.SectionRichList
	}
	if !section.IsValid() {
		return "", fmt.Errorf("unknown section %q", o.section)
	}
	r, ok := domain.ParseRange(o.rng)
	if !ok {
		return "", fmt.Errorf("unknown range %q", o.rng)
	}
	format := reporting.FormatCSV
	if o.kind == kindChanges {
		format = reporting.FormatMarkdown
	}
	if o.format != "" {
		if format, ok = reporting.ParseFormat(o.format); !ok {
			return "", fmt.Errorf("unknown format %q", o.format)
		}
	}
	if format == reporting.FormatMarkdown && o.kind != kindChanges {
		return "", errors.New("markdown is only available for changes")
	}

	var render func(io.Writer) error
	resource := o.kind
	switch o.kind {
	case kindTable:
		rows, err := walkTable(ctx, api.Section(section), r, o.pageSize)
		if err != nil {
			return "", err
		}
		logger.Info("table walked", zap.String("section", string(section)), zap.Int("rows", len(rows)))
		render = func(w io.Writer) error {
			if format == reporting.FormatJSON {
				return reporting.WriteJSON(w, rows)
			}
			return reporting.WriteTableCSV(w, rows, nil)
		}

	case kindChart:
		ch, err := api.Section(section).Chart(ctx, analyticsapi.ChartParams{Range: r})
		if err != nil {
			return "", err
		}
		points := chart.WithMovingAverage(chart.WithTotals(chart.FromSeries(ch.Points)), chart.DefaultMovingAverageWindow)
		categories := normalization.Categories(ch.Points)
		render = func(w io.Writer) error {
			if format == reporting.FormatJSON {
				return reporting.WriteJSON(w, points)
			}
			return reporting.WriteSeriesCSV(w, points, categories)
		}

	case kindChanges:
		report, err := changes(ctx, api, cfg, r, o, logger)
		if err != nil {
			return "", err
		}
		render = func(w io.Writer) error {
			switch format {
			case reporting.FormatJSON:
				return reporting.WriteJSON(w, report)
			case reporting.FormatMarkdown:
				_, err := io.WriteString(w, reporting.RenderRichListMarkdown(report))
				return err
			default:
				return reporting.WriteHolderEntriesCSV(w, report.Entries)
			}
		}

	default:
		return "", fmt.Errorf("unknown kind %q", o.kind)
	}

	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(o.outputDir, reporting.FileName(section, resource, format, time.Now()))
	if err := writeFile(path, render); err != nil {
		return "", err
	}
	return path, nil
}

func walkTable(ctx context.Context, api *analyticsapi.SectionClient, r domain.Range, pageSize int) ([]map[string]any, error) {
	view := tablestate.NewView(api)
	view.Dispatch(tablestate.SelectRange{Range: r}, tablestate.SetPageSize{Size: pageSize})

	var rows []map[string]any
	err := view.Walk(ctx, func(p domain.TablePage) error {
		rows = append(rows, p.Rows...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s table: %w", api.Name(), err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// changes compares the API's latest rich list against the API baseline or,
// when absent, the archived snapshot closest to lookback earlier.
func changes(ctx context.Context, api *analyticsapi.Client, cfg *config.Config, r domain.Range, o options, logger *zap.Logger) (*reporting.RichListReport, error) {
	snaps, err := api.RichList().Snapshots(ctx, analyticsapi.ChartParams{Range: r, Top: o.top})
	if err != nil {
		return nil, err
	}
	latest := *snaps.Latest
	if latest.TakenAtMs == 0 {
		latest.TakenAtMs = time.Now().UnixMilli()
	}

	baseline := snaps.Baseline
	if baseline == nil && !cfg.Storage.UseMemory {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, pgstore.WithMaxConns(cfg.Storage.MaxConns))
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		baseline, err = reporting.ResolveBaseline(ctx, pgstore.NewHolderSnapshotStore(pool), latest.TakenAtMs-o.lookback.Milliseconds())
		if err != nil {
			return nil, err
		}
		if baseline != nil && baseline.TakenAtMs >= latest.TakenAtMs {
			baseline = nil
		}
	}
	if baseline == nil {
		logger.Warn("no baseline snapshot, every holder is reported as new")
	}
	return reporting.Build(&latest, baseline, o.top, reporting.DefaultConcentrationTiers, time.Now().UTC()), nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := render(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
