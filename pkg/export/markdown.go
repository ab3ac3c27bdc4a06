package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

// MarkdownReporter writes the narrative report consumed by stakeholders. It
// renders only the finalized RunResult.
type MarkdownReporter struct {
	writer io.Writer
}

func NewMarkdownReporter(writer io.Writer) *MarkdownReporter {
	return &MarkdownReporter{writer: writer}
}

func (m *MarkdownReporter) Handle(result *domain.RunResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Advertising Cohort Report\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", result.ID, result.GeneratedAt.Format("2006-01-02 15:04 MST"))
	b.WriteString("ROAS and ACOS use ad-attributed sales; TACoS and T-ROAS use total order revenue (ad + organic). All ratios are totals over the stated scope, never averages of per-row ratios.\n\n")

	b.WriteString("## Cohort Overview\n\n")
	b.WriteString("| Cohort | Spend | Ad Sales | Revenue | ROAS | ACOS | TACoS | T-ROAS |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, c := range result.Cohorts {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			c.Cohort,
			formatMoney(c.Totals.Spend), formatMoney(c.Totals.AdSales), formatMoney(c.Totals.Revenue),
			formatRatio(c.ROAS), formatRatio(c.ACOS), formatRatio(c.TACoS), formatRatio(c.TROAS))
	}
	b.WriteString("\n")

	if cmp := result.CohortComparison; cmp != nil {
		writeComparison(&b, "Cohort Comparison", cmp,
			string(cmp.A.Cohort), string(cmp.B.Cohort))
	}
	if cmp := result.PhaseComparison; cmp != nil {
		writeComparison(&b, "Phase Comparison", cmp,
			cmp.A.Bucket.Label, cmp.B.Bucket.Label)
	}

	b.WriteString("## Data Quality\n\n")
	for _, s := range result.Quality.Sources {
		fmt.Fprintf(&b, "- `%s`: %d rows read, %d kept (%d duplicates, %d status-filtered, %d malformed)\n",
			s.Source, s.RowsRead, s.RowsKept, s.Duplicates, s.FilteredByStatus, s.Malformed)
	}
	for _, s := range result.Quality.Skipped {
		fmt.Fprintf(&b, "- `%s`: **skipped** — %s\n", s.Source, s.Reason)
	}
	for _, c := range result.Quality.Conflicts {
		fmt.Fprintf(&b, "- conflict: %s `%s` claimed by %s — tagged Unknown, needs manual resolution\n",
			c.KeyType, c.Key, strings.Join(c.Cohorts, " and "))
	}
	fmt.Fprintf(&b, "- unknown entities: %d (%d rows); undefined ratios: %d\n",
		result.Quality.UnknownEntities, result.Quality.UnknownRows, result.Quality.UndefinedRatios)

	_, err := io.WriteString(m.writer, b.String())
	return err
}

func writeComparison(b *strings.Builder, title string, cmp *domain.ComparisonResult, aName, bName string) {
	fmt.Fprintf(b, "## %s: %s vs %s\n\n", title, aName, bName)
	fmt.Fprintf(b, "| Metric | %s | %s | Δ | %%Δ | Winner |\n", aName, bName)
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, d := range cmp.Deltas {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			d.Metric, formatRatio(d.A), formatRatio(d.B),
			formatRatio(d.Delta), formatPct(d.PctChange), winnerLabel(d.Winner))
	}
	b.WriteString("\n")
	for _, s := range cmp.Stats {
		if s.Reason != "" {
			fmt.Fprintf(b, "- %s%s: omitted (%s)\n", s.Name, scopeSuffix(s.Scope), s.Reason)
			continue
		}
		fmt.Fprintf(b, "- %s%s: %s over %d samples\n", s.Name, scopeSuffix(s.Scope), formatRatio(s.Value), s.Samples)
	}
	b.WriteString("\n")
}

func scopeSuffix(scope string) string {
	if scope == "" {
		return ""
	}
	return " [" + scope + "]"
}
