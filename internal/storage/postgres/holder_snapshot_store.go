package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/observability"
	"holder-analytics/internal/storage"
)

// HolderSnapshotStore implements storage.HolderSnapshotStore using PostgreSQL.
// Balances are stored as NUMERIC and travel as text to keep full precision.
type HolderSnapshotStore struct {
	pool *Pool
}

// NewHolderSnapshotStore creates a new HolderSnapshotStore.
func NewHolderSnapshotStore(pool *Pool) *HolderSnapshotStore {
	return &HolderSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HolderSnapshotStore = (*HolderSnapshotStore)(nil)

// Insert adds a snapshot with its rows atomically. Returns ErrDuplicateKey if taken_at_ms exists.
func (s *HolderSnapshotStore) Insert(ctx context.Context, snap *domain.HolderSnapshot) (err error) {
	if err := storage.ValidateSnapshot(snap); err != nil {
		return err
	}
	defer observeQuery("insert_snapshot", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO holder_snapshots (taken_at_ms, holder_count) VALUES ($1, $2)
	`, snap.TakenAtMs, len(snap.Holders))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert holder snapshot: %w", err)
	}

	query := `
		INSERT INTO holder_snapshot_rows (
			taken_at_ms, address, rank, balance, percentage
		) VALUES ($1, $2, $3, $4::text::numeric, $5)
	`

	batch := &pgx.Batch{}
	for _, h := range snap.Holders {
		batch.Queue(query, snap.TakenAtMs, h.Address, h.Rank, h.Balance.String(), h.Percentage)
	}
	results := tx.SendBatch(ctx, batch)
	for range snap.Holders {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert holder snapshot row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetLatest retrieves the newest snapshot. Returns ErrNotFound if none exists.
func (s *HolderSnapshotStore) GetLatest(ctx context.Context) (*domain.HolderSnapshot, error) {
	query := `
		SELECT taken_at_ms FROM holder_snapshots
		ORDER BY taken_at_ms DESC
		LIMIT 1
	`
	return s.getOne(ctx, "get_latest_snapshot", query)
}

// GetAtOrBefore retrieves the newest snapshot taken at or before ts.
func (s *HolderSnapshotStore) GetAtOrBefore(ctx context.Context, ts int64) (*domain.HolderSnapshot, error) {
	query := `
		SELECT taken_at_ms FROM holder_snapshots
		WHERE taken_at_ms <= $1
		ORDER BY taken_at_ms DESC
		LIMIT 1
	`
	return s.getOne(ctx, "get_snapshot_at_or_before", query, ts)
}

// ListTimes returns every snapshot time, ordered ASC.
func (s *HolderSnapshotStore) ListTimes(ctx context.Context) (times []int64, err error) {
	defer observeQuery("list_snapshot_times", time.Now(), &err)

	rows, err := s.pool.Query(ctx, `SELECT taken_at_ms FROM holder_snapshots ORDER BY taken_at_ms ASC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshot times: %w", err)
	}
	defer rows.Close()

	times = []int64{}
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan snapshot time: %w", err)
		}
		times = append(times, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot times: %w", err)
	}
	return times, nil
}

func (s *HolderSnapshotStore) getOne(ctx context.Context, op, query string, args ...any) (snap *domain.HolderSnapshot, err error) {
	defer observeQuery(op, time.Now(), &err)

	var takenAt int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&takenAt); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT address, rank, balance::text, percentage
		FROM holder_snapshot_rows
		WHERE taken_at_ms = $1
		ORDER BY CASE WHEN rank <= 0 THEN 2147483647 ELSE rank END ASC, address ASC
	`, takenAt)
	if err != nil {
		return nil, fmt.Errorf("get holder snapshot rows: %w", err)
	}
	defer rows.Close()

	holders, err := scanHolderRows(rows)
	if err != nil {
		return nil, err
	}
	return &domain.HolderSnapshot{TakenAtMs: takenAt, Holders: holders}, nil
}

// scanHolderRows scans multiple rows into HolderRow values.
func scanHolderRows(rows pgx.Rows) ([]domain.HolderRow, error) {
	holders := []domain.HolderRow{}
	for rows.Next() {
		var (
			h       domain.HolderRow
			balance string
		)
		if err := rows.Scan(&h.Address, &h.Rank, &balance, &h.Percentage); err != nil {
			return nil, fmt.Errorf("scan holder row: %w", err)
		}
		d, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", balance, err)
		}
		h.Balance = d
		holders = append(holders, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holder rows: %w", err)
	}
	return holders, nil
}

func observeQuery(op string, start time.Time, err *error) {
	observability.RecordDBQuery("postgres", op, time.Since(start).Seconds(), *err)
}
