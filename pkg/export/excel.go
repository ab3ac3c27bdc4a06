package export

import (
	"fmt"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

// ExcelReporter renders the dashboard workbook: an executive summary, the
// cohort and phase comparisons, the daily trend with a chart, and the
// data-quality sheet. Undefined ratios render as the literal "undefined" so
// they cannot be confused with $0 cells.
type ExcelReporter struct {
	path string
}

func NewExcelReporter(path string) *ExcelReporter {
	return &ExcelReporter{path: path}
}

func (e *ExcelReporter) Handle(result *domain.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeSummary(f, result); err != nil {
		return err
	}
	if result.CohortComparison != nil {
		if err := writeComparisonSheet(f, "Cohort Comparison", result.CohortComparison,
			string(result.CohortComparison.A.Cohort), string(result.CohortComparison.B.Cohort)); err != nil {
			return err
		}
	}
	if result.PhaseComparison != nil {
		if err := writeComparisonSheet(f, "Phase Comparison", result.PhaseComparison,
			result.PhaseComparison.A.Bucket.Label, result.PhaseComparison.B.Bucket.Label); err != nil {
			return err
		}
	}
	if len(result.Daily) > 0 {
		if err := e.writeDailyTrend(f, result); err != nil {
			return err
		}
	}
	if err := e.writeQuality(f, result); err != nil {
		return err
	}

	// The default sheet is replaced by the summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (e *ExcelReporter) writeSummary(f *excelize.File, result *domain.RunResult) error {
	const sheet = "Executive Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Advertising Cohort Report", result.ID},
		{"Generated", result.GeneratedAt.Format("2006-01-02 15:04 MST")},
		{},
		{"Cohort", "Spend", "Ad Sales", "Revenue", "Organic Sales",
			"ROAS", "ACOS", "TACoS", "T-ROAS", "CPC", "CTR", "CVR", "CPA", "CPM", "AOV", "Organic %"},
	}
	for _, c := range result.Cohorts {
		spend, _ := c.Totals.Spend.Float64()
		adSales, _ := c.Totals.AdSales.Float64()
		revenue, _ := c.Totals.Revenue.Float64()
		organic, _ := c.Totals.OrganicSales().Float64()
		rows = append(rows, []interface{}{
			string(c.Cohort), spend, adSales, revenue, organic,
			ratioCell(c.ROAS), ratioCell(c.ACOS), ratioCell(c.TACoS), ratioCell(c.TROAS),
			ratioCell(c.CPC), ratioCell(c.CTR), ratioCell(c.CVR), ratioCell(c.CPA),
			ratioCell(c.CPM), ratioCell(c.AOV), ratioCell(c.OrganicRatio),
		})
	}
	return writeRows(f, sheet, rows)
}

func writeComparisonSheet(f *excelize.File, sheet string, cmp *domain.ComparisonResult, aName, bName string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Metric", aName, bName, "Delta", "% Change", "Winner"},
	}
	for _, d := range cmp.Deltas {
		rows = append(rows, []interface{}{
			d.Metric, ratioCell(d.A), ratioCell(d.B),
			ratioCell(d.Delta), pctCell(d.PctChange), winnerLabel(d.Winner),
		})
	}
	rows = append(rows, []interface{}{})
	for _, s := range cmp.Stats {
		if s.Reason != "" {
			rows = append(rows, []interface{}{s.Name, s.Scope, s.Reason})
			continue
		}
		rows = append(rows, []interface{}{s.Name, s.Scope, ratioCell(s.Value), s.Samples})
	}
	return writeRows(f, sheet, rows)
}

func (e *ExcelReporter) writeDailyTrend(f *excelize.File, result *domain.RunResult) error {
	const sheet = "Daily Trend"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Cohort", "Date", "Spend", "Ad Sales", "Revenue", "Organic Sales", "ROAS", "TACoS"},
	}
	for _, c := range result.Daily {
		spend, _ := c.Totals.Spend.Float64()
		adSales, _ := c.Totals.AdSales.Float64()
		revenue, _ := c.Totals.Revenue.Float64()
		organic, _ := c.Totals.OrganicSales().Float64()
		rows = append(rows, []interface{}{
			string(c.Cohort), c.Bucket.Label, spend, adSales, revenue, organic,
			ratioCell(c.ROAS), ratioCell(c.TACoS),
		})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}

	last := len(rows)
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("'%s'!$C$1", sheet),
				Categories: fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, last),
				Values:     fmt.Sprintf("'%s'!$C$2:$C$%d", sheet, last),
			},
			{
				Name:       fmt.Sprintf("'%s'!$F$1", sheet),
				Categories: fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, last),
				Values:     fmt.Sprintf("'%s'!$F$2:$F$%d", sheet, last),
			},
		},
		Title: []excelize.RichTextRun{{Text: "Ad Spend vs Organic Sales"}},
	}
	if err := f.AddChart(sheet, "J2", chart); err != nil {
		return fmt.Errorf("add trend chart: %w", err)
	}
	return nil
}

func (e *ExcelReporter) writeQuality(f *excelize.File, result *domain.RunResult) error {
	const sheet = "Data Quality"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Source", "Rows Read", "Rows Kept", "Duplicates", "Status Filtered", "Malformed"},
	}
	for _, s := range result.Quality.Sources {
		rows = append(rows, []interface{}{
			s.Source, s.RowsRead, s.RowsKept, s.Duplicates, s.FilteredByStatus, s.Malformed,
		})
	}
	for _, s := range result.Quality.Skipped {
		rows = append(rows, []interface{}{s.Source, "SKIPPED", s.Reason})
	}
	rows = append(rows, []interface{}{})
	for _, c := range result.Quality.Conflicts {
		rows = append(rows, []interface{}{"conflict", c.KeyType, c.Key, fmt.Sprint(c.Cohorts)})
	}
	rows = append(rows,
		[]interface{}{"unknown entities", result.Quality.UnknownEntities},
		[]interface{}{"unknown rows", result.Quality.UnknownRows},
		[]interface{}{"undefined ratios", result.Quality.UndefinedRatios},
	)
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// ratioCell keeps undefined ratios textual instead of coercing them to 0.
func ratioCell(r domain.Ratio) interface{} {
	if !r.Defined {
		return "undefined"
	}
	return r.Value
}

func pctCell(r domain.Ratio) interface{} {
	if !r.Defined {
		return "undefined"
	}
	return r.Value
}
