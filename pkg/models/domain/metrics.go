package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ratio is a derived metric that may be undefined when its denominator sum is
// zero. An undefined ratio is a valid result state, never an error; it must
// survive end-to-end and render as "undefined" rather than 0 or Inf.
type Ratio struct {
	Value   float64
	Defined bool
}

// NewRatio divides two finalized sums, yielding an undefined ratio when the
// denominator is zero.
func NewRatio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Defined: true}
}

func DefinedRatio(v float64) Ratio { return Ratio{Value: v, Defined: true} }

func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", r.Value)
}

// MarshalJSON encodes an undefined ratio as null so consumers cannot mistake
// it for a zero.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio{Value: v, Defined: true}
	return nil
}

// BucketKind identifies the partition axis an AggregatedMetrics cell belongs to.
type BucketKind string

const (
	BucketAll   BucketKind = "all"
	BucketDay   BucketKind = "day"
	BucketMonth BucketKind = "month"
	BucketASIN  BucketKind = "asin"
	BucketPhase BucketKind = "phase"
)

// TimeBucket scopes an AggregatedMetrics cell. Label is the day/month stamp,
// phase name, or ASIN depending on Kind; ranged buckets carry Start/End.
type TimeBucket struct {
	Kind  BucketKind `json:"kind"`
	Label string     `json:"label"`
	Start time.Time  `json:"start,omitempty"`
	End   time.Time  `json:"end,omitempty"`
}

// MetricTotals holds the raw sums accumulated in the streaming pass. Currency
// sums stay decimal until ratios are derived.
type MetricTotals struct {
	Spend       decimal.Decimal `json:"spend"`
	AdSales     decimal.Decimal `json:"ad_sales"`
	Revenue     decimal.Decimal `json:"revenue"`
	Clicks      int64           `json:"clicks"`
	Impressions int64           `json:"impressions"`
	Orders      int64           `json:"orders"`
	Units       int64           `json:"units"`
	Rows        int64           `json:"rows"`
	Days        int64           `json:"days"`
}

// OrganicSales is the order-report revenue not attributed to advertising.
func (t MetricTotals) OrganicSales() decimal.Decimal {
	return t.Revenue.Sub(t.AdSales)
}

// AggregatedMetrics is the finalized bundle for one (cohort, bucket) cell.
// Every ratio is total-over-total for the cell's full scope; per-row ratios
// are never averaged. ROAS/ACOS/AOV use the ad-attributed sales universe,
// TACoS/T-ROAS/OrganicRatio the order-report revenue universe.
type AggregatedMetrics struct {
	Cohort CohortTag    `json:"cohort"`
	Bucket TimeBucket   `json:"bucket"`
	Totals MetricTotals `json:"totals"`

	ROAS         Ratio `json:"roas"`
	ACOS         Ratio `json:"acos"`
	TACoS        Ratio `json:"tacos"`
	TROAS        Ratio `json:"t_roas"`
	CPC          Ratio `json:"cpc"`
	CTR          Ratio `json:"ctr"`
	CVR          Ratio `json:"cvr"`
	CPA          Ratio `json:"cpa"`
	CPM          Ratio `json:"cpm"`
	AOV          Ratio `json:"aov"`
	OrganicRatio Ratio `json:"organic_ratio"`
}

// Metric returns the named derived ratio or total as a Ratio, so comparison
// code can walk a fixed metric list without re-deriving formulas.
func (m AggregatedMetrics) Metric(name string) (Ratio, bool) {
	switch name {
	case MetricSpend:
		return DefinedRatio(dec2f(m.Totals.Spend)), true
	case MetricAdSales:
		return DefinedRatio(dec2f(m.Totals.AdSales)), true
	case MetricRevenue:
		return DefinedRatio(dec2f(m.Totals.Revenue)), true
	case MetricOrganicSales:
		return DefinedRatio(dec2f(m.Totals.OrganicSales())), true
	case MetricClicks:
		return DefinedRatio(float64(m.Totals.Clicks)), true
	case MetricImpressions:
		return DefinedRatio(float64(m.Totals.Impressions)), true
	case MetricOrders:
		return DefinedRatio(float64(m.Totals.Orders)), true
	case MetricUnits:
		return DefinedRatio(float64(m.Totals.Units)), true
	case MetricROAS:
		return m.ROAS, true
	case MetricACOS:
		return m.ACOS, true
	case MetricTACoS:
		return m.TACoS, true
	case MetricTROAS:
		return m.TROAS, true
	case MetricCPC:
		return m.CPC, true
	case MetricCTR:
		return m.CTR, true
	case MetricCVR:
		return m.CVR, true
	case MetricCPA:
		return m.CPA, true
	case MetricCPM:
		return m.CPM, true
	case MetricAOV:
		return m.AOV, true
	case MetricOrganicRatio:
		return m.OrganicRatio, true
	}
	return Ratio{}, false
}

// Metric names used across comparisons, polarity tables and rendering.
const (
	MetricSpend        = "spend"
	MetricAdSales      = "ad_sales"
	MetricRevenue      = "revenue"
	MetricOrganicSales = "organic_sales"
	MetricClicks       = "clicks"
	MetricImpressions  = "impressions"
	MetricOrders       = "orders"
	MetricUnits        = "units"
	MetricROAS         = "roas"
	MetricACOS         = "acos"
	MetricTACoS        = "tacos"
	MetricTROAS        = "t_roas"
	MetricCPC          = "cpc"
	MetricCTR          = "ctr"
	MetricCVR          = "cvr"
	MetricCPA          = "cpa"
	MetricCPM          = "cpm"
	MetricAOV          = "aov"
	MetricOrganicRatio = "organic_ratio"
)

// MetricOrder is the canonical rendering/comparison order.
var MetricOrder = []string{
	MetricSpend, MetricAdSales, MetricRevenue, MetricOrganicSales,
	MetricClicks, MetricImpressions, MetricOrders, MetricUnits,
	MetricROAS, MetricACOS, MetricTACoS, MetricTROAS,
	MetricCPC, MetricCTR, MetricCVR, MetricCPA, MetricCPM, MetricAOV,
	MetricOrganicRatio,
}

func dec2f(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
