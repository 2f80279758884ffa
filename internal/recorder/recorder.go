// Package recorder archives chart series and rich-list snapshots on a
// schedule so baselines exist when the API does not return one.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/idhash"
	"holder-analytics/internal/normalization"
	"holder-analytics/internal/observability"
	"holder-analytics/internal/storage"
)

// ErrAlreadyRunning is returned by RunOnce when a run is in progress.
var ErrAlreadyRunning = errors.New("recorder already running")

// Invalidator drops cached responses by key prefix.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// Notifier receives an event per refreshed section.
type Notifier interface {
	Notify(Event)
}

// Event announces that archived data of a section changed.
type Event struct {
	Type     string         `json:"type"`
	Section  domain.Section `json:"section"`
	Points   int            `json:"points,omitempty"`
	Snapshot int64          `json:"snapshot,omitempty"` // taken_at_ms
	At       time.Time      `json:"at"`
}

// EventRefreshed is the Type of every recorder event.
const EventRefreshed = "refreshed"

// Options for creating Recorder.
type Options struct {
	// Required
	Source        Source
	SeriesStore   storage.SeriesStore
	SnapshotStore storage.HolderSnapshotStore

	// Sections whose chart series are archived
	Sections []domain.Section
	Range    domain.Range

	// RichListTop > 0 archives a rich-list snapshot of that many holders
	RichListTop int

	// Optional
	Cache    Invalidator
	Notifier Notifier
	Logger   *zap.Logger
	Now      func() time.Time
}

// SectionResult is the outcome of one section in a run.
type SectionResult struct {
	Section  domain.Section
	Points   int   // new points archived
	Snapshot int64 // taken_at_ms of the archived snapshot, 0 if none
	Err      error
}

// Result summarizes a run.
type Result struct {
	StartedAt time.Time
	Duration  time.Duration
	Sections  []SectionResult
}

// Status is the scheduler state reported by /status.
type Status struct {
	Running   bool      `json:"running"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Recorder archives API data into the stores.
type Recorder struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	running bool
	status  Status
}

// New creates a Recorder.
func New(opts Options) *Recorder {
	if opts.Range == "" {
		opts.Range = domain.DefaultRange
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{opts: opts, log: log.Named("recorder")}
}

// Status returns a copy of the scheduler state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status
	s.Running = r.running
	return s
}

// Run calls RunOnce immediately and then every interval until ctx ends.
// A tick that finds a run in progress is skipped.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) error {
	r.log.Info("starting recorder", zap.Duration("interval", interval), zap.Int("sections", len(r.opts.Sections)))

	r.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Recorder) tick(ctx context.Context) {
	_, err := r.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		r.log.Info("recorder already running, skipping")
	case err != nil:
		r.log.Warn("recorder run failed", zap.Error(err))
	}
}

// RunOnce archives every configured section. Section failures are combined
// and do not stop the others.
func (r *Recorder) RunOnce(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	res := &Result{StartedAt: r.opts.Now()}
	var errs error

	for _, section := range r.opts.Sections {
		if section == domain.SectionRichList {
			continue // archived as a snapshot below
		}
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		n, err := r.archiveSeries(ctx, section)
		sr := SectionResult{Section: section, Points: n, Err: err}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("section %s: %w", section, err))
			r.log.Warn("archive series failed", zap.String("section", string(section)), zap.Error(err))
		} else if n > 0 {
			r.refreshed(sr)
		}
		res.Sections = append(res.Sections, sr)
	}

	if r.opts.RichListTop > 0 && r.opts.SnapshotStore != nil && ctx.Err() == nil {
		taken, err := r.archiveSnapshot(ctx)
		sr := SectionResult{Section: domain.SectionRichList, Snapshot: taken, Err: err}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("section %s: %w", domain.SectionRichList, err))
			r.log.Warn("archive snapshot failed", zap.Error(err))
		} else if taken > 0 {
			r.refreshed(sr)
		}
		res.Sections = append(res.Sections, sr)
	}

	res.Duration = r.opts.Now().Sub(res.StartedAt)
	status := "success"
	if errs != nil {
		status = "error"
	}
	observability.RecordRecorderRun(status, res.Duration.Seconds(), r.opts.Now().Unix())

	r.mu.Lock()
	r.running = false
	r.status.Runs++
	r.status.LastRun = res.StartedAt
	r.status.LastError = ""
	if errs != nil {
		r.status.LastError = errs.Error()
	}
	r.mu.Unlock()

	r.log.Info("recorder run complete",
		zap.Int("sections", len(res.Sections)),
		zap.Duration("elapsed", res.Duration),
		zap.Int("errors", len(multierr.Errors(errs))),
	)
	return res, errs
}

// archiveSeries appends points newer than the archived tail of the series.
func (r *Recorder) archiveSeries(ctx context.Context, section domain.Section) (int, error) {
	if r.opts.SeriesStore == nil {
		return 0, nil
	}
	series, err := r.opts.Source.FetchSeries(ctx, section, r.opts.Range)
	if err != nil {
		return 0, fmt.Errorf("fetch series: %w", err)
	}

	seriesID := domain.SeriesID(section, r.opts.Range)
	after, err := r.opts.SeriesStore.LatestTimestamp(ctx, seriesID)
	if errors.Is(err, storage.ErrNotFound) {
		after = math.MinInt64
	} else if err != nil {
		return 0, fmt.Errorf("latest timestamp: %w", err)
	}

	var fresh []*domain.SeriesPoint
	for _, p := range series {
		ms, ok := normalization.TimestampMs(p)
		if !ok || ms <= after {
			continue
		}
		fresh = append(fresh, &domain.SeriesPoint{
			SeriesID:    seriesID,
			TimestampMs: ms,
			Timestamp:   p.Timestamp,
			Metrics:     p.Metrics,
		})
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := r.opts.SeriesStore.InsertBulk(ctx, fresh); err != nil {
		return 0, fmt.Errorf("insert points: %w", err)
	}
	observability.RecordPointsArchived(string(section), len(fresh))
	return len(fresh), nil
}

// archiveSnapshot stores the latest rich list unless it is already archived.
func (r *Recorder) archiveSnapshot(ctx context.Context) (int64, error) {
	snap, err := r.opts.Source.FetchRichList(ctx, r.opts.Range, r.opts.RichListTop)
	if err != nil {
		return 0, fmt.Errorf("fetch rich list: %w", err)
	}
	if snap == nil || len(snap.Holders) == 0 {
		return 0, nil
	}
	if snap.TakenAtMs <= 0 {
		snap.TakenAtMs = r.opts.Now().UnixMilli()
	}

	err = r.opts.SnapshotStore.Insert(ctx, snap)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	observability.RecordSnapshotArchived()
	return snap.TakenAtMs, nil
}

func (r *Recorder) refreshed(sr SectionResult) {
	if r.opts.Cache != nil {
		prefix := idhash.KeyPrefix(string(sr.Section))
		n := r.opts.Cache.InvalidatePrefix(prefix)
		r.log.Debug("invalidated cache", zap.String("prefix", prefix), zap.Int("entries", n))
	}
	if r.opts.Notifier != nil {
		r.opts.Notifier.Notify(Event{
			Type:     EventRefreshed,
			Section:  sr.Section,
			Points:   sr.Points,
			Snapshot: sr.Snapshot,
			At:       r.opts.Now(),
		})
	}
}
