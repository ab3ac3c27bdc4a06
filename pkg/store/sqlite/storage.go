package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const runsSchema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		generated_at TIMESTAMP NOT NULL,
		payload TEXT NOT NULL
	);
`

const cohortMetricsSchema = `
	CREATE TABLE IF NOT EXISTS cohort_metrics (
		run_id TEXT NOT NULL,
		cohort TEXT NOT NULL,
		bucket_kind TEXT NOT NULL,
		bucket_label TEXT NOT NULL,
		spend REAL NOT NULL,
		ad_sales REAL NOT NULL,
		revenue REAL NOT NULL,
		clicks INTEGER NOT NULL,
		impressions INTEGER NOT NULL,
		orders INTEGER NOT NULL,
		units INTEGER NOT NULL,
		roas REAL,
		acos REAL,
		tacos REAL,
		t_roas REAL,
		cpc REAL,
		ctr REAL,
		cvr REAL,
		cpa REAL,
		cpm REAL,
		aov REAL,
		organic_ratio REAL,
		PRIMARY KEY (run_id, cohort, bucket_kind, bucket_label)
	);
`

var bootQueries = []string{
	runsSchema,
	cohortMetricsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	db, err := sql.Open("sqlite", settings.DbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	for _, query := range bootQueries {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return db, nil
}
