// Package aggregate is the single source of truth for every derived
// advertising ratio. All report variants call into it; no other package may
// re-derive a metric formula.
package aggregate

import (
	"sort"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

type cellKey struct {
	cohort domain.CohortTag
	label  string
}

type cell struct {
	bucket domain.TimeBucket
	totals domain.MetricTotals
	days   map[string]bool
}

// Accumulator sums raw totals per (cohort, bucket) cell in a streaming pass.
// Currency fields accumulate as decimals so hundreds of thousands of rows
// cannot drift; ratios are derived from the finalized sums only.
type Accumulator struct {
	part     Partitioner
	cells    map[cellKey]*cell
	excluded int64
}

func NewAccumulator(p Partitioner) *Accumulator {
	return &Accumulator{part: p, cells: make(map[cellKey]*cell)}
}

// Add folds one record into its partition cell.
func (a *Accumulator) Add(rec domain.Record, tag domain.CohortTag) {
	bucket, ok := a.part.Bucket(rec)
	if !ok {
		a.excluded++
		return
	}

	key := cellKey{cohort: tag, label: bucket.Label}
	c := a.cells[key]
	if c == nil {
		c = &cell{bucket: bucket, days: make(map[string]bool)}
		a.cells[key] = c
	}

	t := &c.totals
	t.Spend = t.Spend.Add(rec.Spend)
	t.AdSales = t.AdSales.Add(rec.AdSales)
	t.Revenue = t.Revenue.Add(rec.Revenue)
	t.Clicks += rec.Clicks
	t.Impressions += rec.Impressions
	t.Orders += rec.Orders
	t.Units += rec.Units
	t.Rows++
	if !rec.Date.IsZero() {
		c.days[rec.Date.Format("2006-01-02")] = true
	}
}

// Excluded is the number of records the partitioner rejected (no date, no
// ASIN, or outside every phase).
func (a *Accumulator) Excluded() int64 { return a.excluded }

// Finalize derives the ratio set for every cell from its accumulated sums and
// returns the cells in deterministic order (cohort, then bucket label).
func (a *Accumulator) Finalize() []domain.AggregatedMetrics {
	out := make([]domain.AggregatedMetrics, 0, len(a.cells))
	for key, c := range a.cells {
		c.totals.Days = int64(len(c.days))
		out = append(out, Finalize(key.cohort, c.bucket, c.totals))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cohort != out[j].Cohort {
			return out[i].Cohort < out[j].Cohort
		}
		return out[i].Bucket.Label < out[j].Bucket.Label
	})
	return out
}

// Finalize computes every derived ratio for one cell as total-over-total.
// A zero denominator yields an undefined ratio, never 0 or Inf. This is the
// aggregation-order invariant the whole engine exists for: per-row ratios are
// never averaged.
func Finalize(cohort domain.CohortTag, bucket domain.TimeBucket, totals domain.MetricTotals) domain.AggregatedMetrics {
	spend, _ := totals.Spend.Float64()
	adSales, _ := totals.AdSales.Float64()
	revenue, _ := totals.Revenue.Float64()
	organic, _ := totals.OrganicSales().Float64()
	clicks := float64(totals.Clicks)
	impressions := float64(totals.Impressions)
	orders := float64(totals.Orders)

	m := domain.AggregatedMetrics{
		Cohort: cohort,
		Bucket: bucket,
		Totals: totals,

		ROAS:         domain.NewRatio(adSales, spend),
		ACOS:         domain.NewRatio(spend, adSales),
		TACoS:        domain.NewRatio(spend, revenue),
		TROAS:        domain.NewRatio(revenue, spend),
		CPC:          domain.NewRatio(spend, clicks),
		CTR:          domain.NewRatio(clicks, impressions),
		CVR:          domain.NewRatio(orders, clicks),
		CPA:          domain.NewRatio(spend, orders),
		AOV:          domain.NewRatio(adSales, orders),
		OrganicRatio: domain.NewRatio(organic, revenue),
	}
	if cpm := domain.NewRatio(spend, impressions); cpm.Defined {
		m.CPM = domain.DefinedRatio(cpm.Value * 1000)
	}
	return m
}

// UndefinedCount tallies undefined ratios across cells for the data-quality
// summary.
func UndefinedCount(cells []domain.AggregatedMetrics) int64 {
	var n int64
	for _, m := range cells {
		for _, r := range []domain.Ratio{
			m.ROAS, m.ACOS, m.TACoS, m.TROAS, m.CPC, m.CTR, m.CVR, m.CPA, m.CPM, m.AOV, m.OrganicRatio,
		} {
			if !r.Defined {
				n++
			}
		}
	}
	return n
}
