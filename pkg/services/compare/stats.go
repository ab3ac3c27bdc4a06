package compare

import (
	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"gonum.org/v1/gonum/stat"
)

// MinCorrelationSamples is the smallest time series Pearson correlation is
// computed over; below it the statistic is omitted with a reason.
const MinCorrelationSamples = 3

// SpendOrganicPoint is one paired time-series sample: ad spend and the
// organic-sales proxy for the same bucket.
type SpendOrganicPoint struct {
	Bucket  string
	Spend   float64
	Organic float64
}

// SeriesFrom extracts paired (spend, organic) samples for one cohort from a
// per-bucket partition, in the deterministic order Finalize emits.
func SeriesFrom(cells []domain.AggregatedMetrics, cohort domain.CohortTag) []SpendOrganicPoint {
	var out []SpendOrganicPoint
	for _, m := range cells {
		if m.Cohort != cohort {
			continue
		}
		spend, _ := m.Totals.Spend.Float64()
		organic, _ := m.Totals.OrganicSales().Float64()
		out = append(out, SpendOrganicPoint{Bucket: m.Bucket.Label, Spend: spend, Organic: organic})
	}
	return out
}

// Correlation computes the Pearson coefficient between ad spend and the
// organic-sales proxy over the full series. Fewer than MinCorrelationSamples
// buckets is an *domain.InsufficientDataError, not a degenerate value.
func Correlation(series []SpendOrganicPoint) (domain.StatResult, error) {
	if len(series) < MinCorrelationSamples {
		return domain.StatResult{}, &domain.InsufficientDataError{
			Statistic: "pearson_spend_organic",
			Required:  MinCorrelationSamples,
			Got:       len(series),
		}
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = p.Spend
		ys[i] = p.Organic
	}

	return domain.StatResult{
		Name:    "pearson_spend_organic",
		Value:   domain.DefinedRatio(stat.Correlation(xs, ys, nil)),
		Samples: len(series),
	}, nil
}

// Elasticity is the percentage change in organic sales per percentage change
// in ad spend between two periods. It is undefined when the spend change (or
// either base) is zero, since the ratio would be degenerate.
func Elasticity(a, b domain.MetricTotals) domain.Ratio {
	aSpend, _ := a.Spend.Float64()
	bSpend, _ := b.Spend.Float64()
	aOrganic, _ := a.OrganicSales().Float64()
	bOrganic, _ := b.OrganicSales().Float64()

	spendChange := domain.NewRatio(bSpend-aSpend, aSpend)
	organicChange := domain.NewRatio(bOrganic-aOrganic, aOrganic)
	if !spendChange.Defined || !organicChange.Defined || spendChange.Value == 0 {
		return domain.Ratio{}
	}
	return domain.DefinedRatio(organicChange.Value / spendChange.Value)
}
