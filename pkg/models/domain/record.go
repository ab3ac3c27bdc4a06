package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CohortTag classifies an entity by how its advertising is managed.
type CohortTag string

const (
	CohortPerpetua    CohortTag = "Perpetua"
	CohortNonPerpetua CohortTag = "Non-Perpetua"
	CohortUnknown     CohortTag = "Unknown"
)

// Record is one normalized row from a tabular source. Currency amounts are
// kept as decimals until aggregation is finalized.
type Record struct {
	Source       string
	SKU          string
	ASIN         string
	CampaignName string
	Date         time.Time
	Spend        decimal.Decimal
	AdSales      decimal.Decimal
	Revenue      decimal.Decimal
	Clicks       int64
	Impressions  int64
	Orders       int64
	Units        int64
}

// Phase is a named inclusive date range, fixed at configuration time.
type Phase struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar day of t falls inside the phase.
// An open-ended phase (zero End) contains everything from Start onwards.
func (p Phase) Contains(t time.Time) bool {
	day := t.Truncate(24 * time.Hour)
	if day.Before(p.Start.Truncate(24 * time.Hour)) {
		return false
	}
	if p.End.IsZero() {
		return true
	}
	return !day.After(p.End.Truncate(24 * time.Hour))
}
