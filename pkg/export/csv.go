package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

// CSVReporter writes every finalized cell as one flat CSV, the shape the
// processed-data consumers expect.
type CSVReporter struct {
	writer io.Writer
}

func NewCSVReporter(writer io.Writer) *CSVReporter {
	return &CSVReporter{writer: writer}
}

func (c *CSVReporter) Handle(result *domain.RunResult) error {
	w := csv.NewWriter(c.writer)

	header := []string{
		"cohort", "bucket_kind", "bucket_label",
		"spend", "ad_sales", "revenue", "organic_sales",
		"clicks", "impressions", "orders", "units",
		"roas", "acos", "tacos", "t_roas", "cpc", "ctr", "cvr", "cpa", "cpm", "aov", "organic_ratio",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, cells := range [][]domain.AggregatedMetrics{
		result.Cohorts, result.Daily, result.Monthly, result.ByASIN, result.Phases,
	} {
		for _, m := range cells {
			row := []string{
				string(m.Cohort), string(m.Bucket.Kind), m.Bucket.Label,
				m.Totals.Spend.StringFixed(2),
				m.Totals.AdSales.StringFixed(2),
				m.Totals.Revenue.StringFixed(2),
				m.Totals.OrganicSales().StringFixed(2),
				strconv.FormatInt(m.Totals.Clicks, 10),
				strconv.FormatInt(m.Totals.Impressions, 10),
				strconv.FormatInt(m.Totals.Orders, 10),
				strconv.FormatInt(m.Totals.Units, 10),
				ratioField(m.ROAS), ratioField(m.ACOS), ratioField(m.TACoS), ratioField(m.TROAS),
				ratioField(m.CPC), ratioField(m.CTR), ratioField(m.CVR), ratioField(m.CPA),
				ratioField(m.CPM), ratioField(m.AOV), ratioField(m.OrganicRatio),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	w.Flush()
	return w.Error()
}

func ratioField(r domain.Ratio) string {
	if !r.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(r.Value, 'f', 6, 64)
}
