package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/de-tools/ad-atlas/pkg/services/aggregate"
	"github.com/de-tools/ad-atlas/pkg/services/compare"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fixtureResult() *domain.RunResult {
	perpetua := aggregate.Finalize(domain.CohortPerpetua,
		domain.TimeBucket{Kind: domain.BucketAll, Label: "all"},
		domain.MetricTotals{
			Spend:       decimal.RequireFromString("370.00"),
			AdSales:     decimal.RequireFromString("950.00"),
			Revenue:     decimal.RequireFromString("1200.00"),
			Clicks:      180,
			Impressions: 18000,
			Orders:      20,
		})
	manual := aggregate.Finalize(domain.CohortNonPerpetua,
		domain.TimeBucket{Kind: domain.BucketAll, Label: "all"},
		domain.MetricTotals{
			Spend:   decimal.RequireFromString("170.00"),
			AdSales: decimal.RequireFromString("360.00"),
			Revenue: decimal.RequireFromString("500.00"),
			// Zero clicks and impressions: CPC, CTR, CVR, CPM stay undefined.
		})

	cmp := compare.Compare(manual, perpetua, compare.Options{Axis: "cohort"})
	cmp.Stats = append(cmp.Stats, domain.StatResult{
		Name:    "pearson_spend_organic",
		Scope:   "Non-Perpetua",
		Samples: 2,
		Reason:  "pearson_spend_organic: insufficient data, need at least 3 samples, got 2",
	})

	return &domain.RunResult{
		ID:          "run-1",
		GeneratedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
		Cohorts:     []domain.AggregatedMetrics{manual, perpetua},
		Daily: []domain.AggregatedMetrics{
			aggregate.Finalize(domain.CohortPerpetua,
				domain.TimeBucket{Kind: domain.BucketDay, Label: "2025-12-01"},
				domain.MetricTotals{
					Spend:   decimal.RequireFromString("100.00"),
					AdSales: decimal.RequireFromString("250.00"),
					Revenue: decimal.RequireFromString("300.00"),
					Clicks:  50,
				}),
		},
		CohortComparison: &cmp,
		Quality: domain.QualitySummary{
			Sources: []domain.SourceStats{
				{Source: "campaign", RowsRead: 6, RowsKept: 6},
				{Source: "orders", RowsRead: 3, RowsKept: 2, FilteredByStatus: 1},
			},
			Skipped: []domain.SkippedSource{
				{Source: "bad", Reason: `source "bad": schema mismatch, missing required columns: Date`},
			},
			Conflicts: []domain.TagConflict{
				{Key: "B01PERP001", KeyType: "asin", Cohorts: []string{"Non-Perpetua", "Perpetua"}},
			},
			UnknownEntities: 1,
			UnknownRows:     1,
			UndefinedRatios: 7,
		},
	}
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(fixtureResult()))
	out := buf.String()

	assert.Contains(t, out, "Advertising Cohort Report run-1")
	assert.Contains(t, out, "=== Perpetua ===")
	assert.Contains(t, out, "=== Non-Perpetua ===")
	assert.Contains(t, out, "ROAS: 2.57")

	t.Run("undefined renders as text, never zero", func(t *testing.T) {
		assert.Contains(t, out, "CTR: undefined")
		assert.NotContains(t, out, "CTR: 0.00")
	})

	t.Run("comparison table", func(t *testing.T) {
		assert.Contains(t, out, "=== Cohort Comparison (Non-Perpetua vs Perpetua) ===")
		assert.Contains(t, out, "| roas")
		assert.Contains(t, out, "insufficient data")
	})

	t.Run("data quality", func(t *testing.T) {
		assert.Contains(t, out, "orders: read 3, kept 2, duplicates 0, filtered 1, malformed 0")
		assert.Contains(t, out, "SKIPPED bad")
		assert.Contains(t, out, "CONFLICT asin B01PERP001")
		assert.Contains(t, out, "Undefined ratios: 7")
	})
}

func TestMarkdownReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownReporter(&buf).Handle(fixtureResult()))
	out := buf.String()

	assert.Contains(t, out, "# Advertising Cohort Report")
	assert.Contains(t, out, "| Perpetua | $370.00 | $950.00 | $1200.00 | 2.57 |")
	assert.Contains(t, out, "## Cohort Comparison: Non-Perpetua vs Perpetua")
	assert.Contains(t, out, "| cpc | undefined |")
	assert.Contains(t, out, "omitted (pearson_spend_organic: insufficient data")
	assert.Contains(t, out, "tagged Unknown, needs manual resolution")
	assert.Contains(t, out, "never averages of per-row ratios")
}

func TestCSVReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVReporter(&buf).Handle(fixtureResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus two cohort cells plus one daily cell")

	header := rows[0]
	assert.Equal(t, "cohort", header[0])
	assert.Equal(t, "roas", header[11])

	byCohort := map[string][]string{}
	for _, row := range rows[1:3] {
		byCohort[row[0]] = row
	}

	perp := byCohort["Perpetua"]
	require.NotNil(t, perp)
	assert.Equal(t, "370.00", perp[3])
	assert.Equal(t, "2.567568", perp[11])

	manual := byCohort["Non-Perpetua"]
	require.NotNil(t, manual)
	assert.Equal(t, "undefined", manual[15], "cpc is undefined with zero clicks")
	assert.Equal(t, "undefined", manual[16], "ctr is undefined with zero impressions")
}

func TestExcelReporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	require.NoError(t, NewExcelReporter(path).Handle(fixtureResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.ElementsMatch(t, []string{
		"Executive Summary", "Cohort Comparison", "Daily Trend", "Data Quality",
	}, sheets)
	assert.NotContains(t, sheets, "Sheet1")

	t.Run("summary rows", func(t *testing.T) {
		got, err := f.GetCellValue("Executive Summary", "A5")
		require.NoError(t, err)
		assert.Equal(t, "Non-Perpetua", got)

		ctr, err := f.GetCellValue("Executive Summary", "K5")
		require.NoError(t, err)
		assert.Equal(t, "undefined", ctr)
	})

	t.Run("daily trend data feeding the chart", func(t *testing.T) {
		date, err := f.GetCellValue("Daily Trend", "B2")
		require.NoError(t, err)
		assert.Equal(t, "2025-12-01", date)
	})
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "undefined", formatRatio(domain.Ratio{}))
	assert.Equal(t, "1.98", formatRatio(domain.DefinedRatio(1.98104)))
	assert.Equal(t, "+27.8%", formatPct(domain.DefinedRatio(0.278)))
	assert.Equal(t, "undefined", formatPct(domain.Ratio{}))
	assert.Equal(t, "$236157.39", formatMoney(decimal.RequireFromString("236157.39")))
}

func TestWinnerLabel(t *testing.T) {
	assert.Equal(t, "A", winnerLabel(domain.SideA))
	assert.Equal(t, "B", winnerLabel(domain.SideB))
	assert.Equal(t, "tie", winnerLabel(domain.SideTie))
	assert.Equal(t, "", winnerLabel(domain.SideNone))
}
