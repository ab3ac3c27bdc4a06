package store

import (
	"database/sql"
	"time"
)

// Run is a persisted, finalized pipeline run. Payload is the full RunResult
// encoded as JSON; the metric rows exist for ad-hoc SQL over past runs.
type Run struct {
	ID          string
	GeneratedAt time.Time
	Payload     []byte
}

// CohortMetricRow is one finalized (cohort, bucket) cell. Ratio columns are
// nullable: NULL is the undefined sentinel, distinct from 0.
type CohortMetricRow struct {
	RunID       string
	Cohort      string
	BucketKind  string
	BucketLabel string

	Spend       float64
	AdSales     float64
	Revenue     float64
	Clicks      int64
	Impressions int64
	Orders      int64
	Units       int64

	ROAS         sql.NullFloat64
	ACOS         sql.NullFloat64
	TACoS        sql.NullFloat64
	TROAS        sql.NullFloat64
	CPC          sql.NullFloat64
	CTR          sql.NullFloat64
	CVR          sql.NullFloat64
	CPA          sql.NullFloat64
	CPM          sql.NullFloat64
	AOV          sql.NullFloat64
	OrganicRatio sql.NullFloat64
}
