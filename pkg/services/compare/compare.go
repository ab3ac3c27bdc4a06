package compare

import (
	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

// Options configure a comparison. A nil Polarity falls back to the built-in
// table; the polarity of a metric is static configuration, never inferred.
type Options struct {
	Axis     string
	Polarity map[string]domain.Polarity
}

func (o Options) polarity() map[string]domain.Polarity {
	if o.Polarity != nil {
		return o.Polarity
	}
	return domain.DefaultPolarity()
}

// Compare produces the delta table between two finalized metric cells.
// Deltas are b - a; percentage change is undefined when the base is undefined
// or zero, and the undefined state propagates instead of becoming 0.
func Compare(a, b domain.AggregatedMetrics, opts Options) domain.ComparisonResult {
	polarity := opts.polarity()
	result := domain.ComparisonResult{Axis: opts.Axis, A: a, B: b}

	for _, name := range domain.MetricOrder {
		av, _ := a.Metric(name)
		bv, _ := b.Metric(name)
		d := domain.MetricDelta{Metric: name, A: av, B: bv}

		if av.Defined && bv.Defined {
			delta := bv.Value - av.Value
			d.Delta = domain.DefinedRatio(delta)
			d.PctChange = domain.NewRatio(delta, av.Value)
			d.Winner = winner(delta, polarity[name])
		}
		result.Deltas = append(result.Deltas, d)
	}
	return result
}

func winner(delta float64, p domain.Polarity) domain.Side {
	if p == "" {
		return domain.SideNone
	}
	if delta == 0 {
		return domain.SideTie
	}
	better := delta > 0
	if p == domain.LowerIsBetter {
		better = !better
	}
	if better {
		return domain.SideB
	}
	return domain.SideA
}
