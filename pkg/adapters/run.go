package adapters

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/de-tools/ad-atlas/pkg/models/store"
)

func MapDomainRunToStore(run *domain.RunResult) (store.Run, []store.CohortMetricRow, error) {
	payload, err := json.Marshal(run)
	if err != nil {
		return store.Run{}, nil, fmt.Errorf("encode run payload: %w", err)
	}

	var rows []store.CohortMetricRow
	for _, cells := range [][]domain.AggregatedMetrics{
		run.Cohorts, run.Daily, run.Monthly, run.ByASIN, run.Phases,
	} {
		for _, m := range cells {
			rows = append(rows, MapAggregatedMetricsToStoreRow(run.ID, m))
		}
	}

	return store.Run{
		ID:          run.ID,
		GeneratedAt: run.GeneratedAt,
		Payload:     payload,
	}, rows, nil
}

func MapStoreRunToDomain(run store.Run) (*domain.RunResult, error) {
	var result domain.RunResult
	if err := json.Unmarshal(run.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode run payload: %w", err)
	}
	return &result, nil
}

func MapAggregatedMetricsToStoreRow(runID string, m domain.AggregatedMetrics) store.CohortMetricRow {
	spend, _ := m.Totals.Spend.Float64()
	adSales, _ := m.Totals.AdSales.Float64()
	revenue, _ := m.Totals.Revenue.Float64()

	return store.CohortMetricRow{
		RunID:       runID,
		Cohort:      string(m.Cohort),
		BucketKind:  string(m.Bucket.Kind),
		BucketLabel: m.Bucket.Label,

		Spend:       spend,
		AdSales:     adSales,
		Revenue:     revenue,
		Clicks:      m.Totals.Clicks,
		Impressions: m.Totals.Impressions,
		Orders:      m.Totals.Orders,
		Units:       m.Totals.Units,

		ROAS:         ratioToNull(m.ROAS),
		ACOS:         ratioToNull(m.ACOS),
		TACoS:        ratioToNull(m.TACoS),
		TROAS:        ratioToNull(m.TROAS),
		CPC:          ratioToNull(m.CPC),
		CTR:          ratioToNull(m.CTR),
		CVR:          ratioToNull(m.CVR),
		CPA:          ratioToNull(m.CPA),
		CPM:          ratioToNull(m.CPM),
		AOV:          ratioToNull(m.AOV),
		OrganicRatio: ratioToNull(m.OrganicRatio),
	}
}

// ratioToNull keeps the undefined sentinel visible in SQL: NULL, never 0.
func ratioToNull(r domain.Ratio) sql.NullFloat64 {
	return sql.NullFloat64{Float64: r.Value, Valid: r.Defined}
}
