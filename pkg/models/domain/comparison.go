package domain

// Polarity says which direction of a metric is desirable. It is static
// configuration, never inferred from the data.
type Polarity string

const (
	HigherIsBetter Polarity = "higher"
	LowerIsBetter  Polarity = "lower"
)

// DefaultPolarity covers the derived ratios plus the revenue totals. Metrics
// absent from the table (spend, clicks, ...) get no winner.
func DefaultPolarity() map[string]Polarity {
	return map[string]Polarity{
		MetricAdSales:      HigherIsBetter,
		MetricRevenue:      HigherIsBetter,
		MetricOrganicSales: HigherIsBetter,
		MetricOrders:       HigherIsBetter,
		MetricUnits:        HigherIsBetter,
		MetricROAS:         HigherIsBetter,
		MetricACOS:         LowerIsBetter,
		MetricTACoS:        LowerIsBetter,
		MetricTROAS:        HigherIsBetter,
		MetricCPC:          LowerIsBetter,
		MetricCTR:          HigherIsBetter,
		MetricCVR:          HigherIsBetter,
		MetricCPA:          LowerIsBetter,
		MetricCPM:          LowerIsBetter,
		MetricAOV:          HigherIsBetter,
		MetricOrganicRatio: HigherIsBetter,
	}
}

// Side marks which scope of a comparison won a metric.
type Side string

const (
	SideA    Side = "a"
	SideB    Side = "b"
	SideTie  Side = "tie"
	SideNone Side = ""
)

// MetricDelta is one metric compared across the two scopes. Delta and
// PctChange are undefined when either side is undefined (or, for PctChange,
// when the base is zero).
type MetricDelta struct {
	Metric    string `json:"metric"`
	A         Ratio  `json:"a"`
	B         Ratio  `json:"b"`
	Delta     Ratio  `json:"delta"`
	PctChange Ratio  `json:"pct_change"`
	Winner    Side   `json:"winner,omitempty"`
}

// StatResult is a statistical measure attached to a comparison. A statistic
// below its minimum sample size carries a Reason and an undefined Value
// instead of a fabricated number.
type StatResult struct {
	Name    string `json:"name"`
	Scope   string `json:"scope,omitempty"`
	Value   Ratio  `json:"value"`
	Samples int    `json:"samples"`
	Reason  string `json:"reason,omitempty"`
}

// ComparisonResult pairs two finalized metric cells with their deltas and
// optional statistics. It is immutable and is the only structure renderers
// consume.
type ComparisonResult struct {
	Axis   string            `json:"axis"`
	A      AggregatedMetrics `json:"a"`
	B      AggregatedMetrics `json:"b"`
	Deltas []MetricDelta     `json:"deltas"`
	Stats  []StatResult      `json:"stats,omitempty"`
}

// Delta returns the delta row for the named metric.
func (c ComparisonResult) Delta(metric string) (MetricDelta, bool) {
	for _, d := range c.Deltas {
		if d.Metric == metric {
			return d, true
		}
	}
	return MetricDelta{}, false
}
