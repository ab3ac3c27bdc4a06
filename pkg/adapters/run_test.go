package adapters

import (
	"testing"
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *domain.RunResult {
	return &domain.RunResult{
		ID:          "run-1",
		GeneratedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
		Cohorts: []domain.AggregatedMetrics{
			{
				Cohort: domain.CohortPerpetua,
				Bucket: domain.TimeBucket{Kind: domain.BucketAll, Label: "all"},
				Totals: domain.MetricTotals{
					Spend:   decimal.RequireFromString("370.00"),
					AdSales: decimal.RequireFromString("950.00"),
					Revenue: decimal.RequireFromString("50.00"),
					Clicks:  180,
				},
				ROAS: domain.DefinedRatio(2.567),
				CTR:  domain.Ratio{},
			},
		},
		Daily: []domain.AggregatedMetrics{
			{Cohort: domain.CohortPerpetua, Bucket: domain.TimeBucket{Kind: domain.BucketDay, Label: "2025-12-01"}},
		},
		Quality: domain.QualitySummary{UndefinedRatios: 10},
	}
}

func TestMapDomainRunToStore(t *testing.T) {
	result := sampleResult()

	rec, rows, err := MapDomainRunToStore(result)
	require.NoError(t, err)

	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, result.GeneratedAt, rec.GeneratedAt)
	require.Len(t, rows, 2, "one row per cell across every partition")

	row := rows[0]
	assert.Equal(t, "run-1", row.RunID)
	assert.Equal(t, "Perpetua", row.Cohort)
	assert.Equal(t, "all", row.BucketKind)
	assert.InDelta(t, 370, row.Spend, 1e-9)

	t.Run("defined ratio maps to a valid column", func(t *testing.T) {
		require.True(t, row.ROAS.Valid)
		assert.InDelta(t, 2.567, row.ROAS.Float64, 1e-9)
	})

	t.Run("undefined ratio maps to NULL, not zero", func(t *testing.T) {
		assert.False(t, row.CTR.Valid)
		assert.False(t, row.CPC.Valid)
	})
}

func TestRunPayloadRoundTrip(t *testing.T) {
	result := sampleResult()

	rec, _, err := MapDomainRunToStore(result)
	require.NoError(t, err)

	t.Run("undefined ratio serializes as null", func(t *testing.T) {
		assert.Contains(t, string(rec.Payload), `"ctr":null`)
		assert.NotContains(t, string(rec.Payload), `"ctr":0`)
	})

	decoded, err := MapStoreRunToDomain(rec)
	require.NoError(t, err)

	assert.Equal(t, result.ID, decoded.ID)
	require.Len(t, decoded.Cohorts, 1)

	got := decoded.Cohorts[0]
	assert.True(t, got.ROAS.Defined)
	assert.InDelta(t, 2.567, got.ROAS.Value, 1e-9)
	assert.False(t, got.CTR.Defined, "undefined survives the round trip")
	assert.True(t, got.Totals.Spend.Equal(decimal.RequireFromString("370.00")))
	assert.Equal(t, int64(10), decoded.Quality.UndefinedRatios)
}

func TestMapStoreRunToDomain_BadPayload(t *testing.T) {
	rec, _, err := MapDomainRunToStore(sampleResult())
	require.NoError(t, err)
	rec.Payload = []byte("{not json")

	_, err = MapStoreRunToDomain(rec)
	assert.Error(t, err)
}
