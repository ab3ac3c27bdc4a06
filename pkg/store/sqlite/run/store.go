package run

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/de-tools/ad-atlas/pkg/models/store"
)

// ErrNoRuns is returned when the store holds no finalized run yet.
var ErrNoRuns = errors.New("no finalized runs in store")

// Store persists finalized pipeline runs. A run and its metric rows are
// written in one transaction, so readers can never observe a partial run.
type Store interface {
	Add(ctx context.Context, run store.Run, rows []store.CohortMetricRow) error
	GetLatest(ctx context.Context) (*store.Run, error)
	List(ctx context.Context, limit int) ([]store.Run, error)
}

type runStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &runStore{db: db}, nil
}

func (s *runStore) Add(ctx context.Context, run store.Run, rows []store.CohortMetricRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, generated_at, payload) VALUES (?, ?, ?)`,
		run.ID, run.GeneratedAt, run.Payload)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cohort_metrics (
			run_id, cohort, bucket_kind, bucket_label,
			spend, ad_sales, revenue, clicks, impressions, orders, units,
			roas, acos, tacos, t_roas, cpc, ctr, cvr, cpa, cpm, aov, organic_ratio
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.RunID, row.Cohort, row.BucketKind, row.BucketLabel,
			row.Spend, row.AdSales, row.Revenue,
			row.Clicks, row.Impressions, row.Orders, row.Units,
			row.ROAS, row.ACOS, row.TACoS, row.TROAS,
			row.CPC, row.CTR, row.CVR, row.CPA, row.CPM, row.AOV, row.OrganicRatio)
		if err != nil {
			return fmt.Errorf("insert metric row (%s/%s/%s): %w",
				row.Cohort, row.BucketKind, row.BucketLabel, err)
		}
	}

	return tx.Commit()
}

func (s *runStore) GetLatest(ctx context.Context) (*store.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, generated_at, payload FROM runs ORDER BY generated_at DESC LIMIT 1`)

	var run store.Run
	err := row.Scan(&run.ID, &run.GeneratedAt, &run.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("scan latest run: %w", err)
	}
	return &run, nil
}

func (s *runStore) List(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, payload FROM runs ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		var run store.Run
		if err := rows.Scan(&run.ID, &run.GeneratedAt, &run.Payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
