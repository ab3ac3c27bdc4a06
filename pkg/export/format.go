package export

import (
	"fmt"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// The renderers must keep "undefined" visibly distinct from zero; these
// helpers are the single place that rule is applied to output.

func formatRatio(r domain.Ratio) string {
	if !r.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

func formatPct(r domain.Ratio) string {
	if !r.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%+.1f%%", r.Value*100)
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
